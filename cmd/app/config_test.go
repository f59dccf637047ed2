package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/inkpost/internal/common"
)

func writeConfig(t *testing.T, data string) string {
	tempFile, err := os.CreateTemp("", "config*.env")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tempFile.Name()) })

	_, err = tempFile.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, tempFile.Close())

	return tempFile.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
PORT=8080
ENVIRONMENT=development
VERSION=1.0.0
MONGO_URI=mongodb://localhost:27017
MONGO_MAX_IDLE_TIME=5m
BLOB_DRIVER=oss
BLOB_PUBLIC_BASE=https://cdn.example.com
OSS_ENDPOINT=oss-ap-southeast-1.aliyuncs.com
OSS_BUCKET=inkpost
ACCESS_TOKEN_SECRET=access
REFRESH_TOKEN_SECRET=refresh
MAIL_HOST=smtp.example.com
MAIL_PORT=587
MAIL_USER=testuser@example.com
MAIL_PASSWORD=testpassword
MAIL_SENDER=sender@example.com
RABBITMQ_HOST=rabbitmq.example.com
RABBITMQ_USER=testuser
RABBITMQ_PASSWORD=testpassword
RATE_LIMIT_ENABLED=false
`)

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "1.0.0", config.Version)
	assert.Equal(t, "mongodb://localhost:27017", config.MongoURI)
	assert.Equal(t, "inkpost", config.MongoDB)
	assert.Equal(t, uint64(25), config.MongoMaxPoolSize)
	assert.Equal(t, 5*time.Minute, config.MongoMaxIdleTime)
	assert.Equal(t, "oss", config.BlobDriver)
	assert.Equal(t, "inkpost", config.OSSBucket)
	assert.Equal(t, "smtp.example.com", config.MailHost)
	assert.Equal(t, 587, config.MailPort)
	assert.Equal(t, "rabbitmq.example.com", config.MQHost)
	assert.Equal(t, "5672", config.MQPort)
	assert.Equal(t, float64(2), config.RateLimitRPS)
	assert.False(t, config.RateLimitEnabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name   string
		data   string
		fields []string
	}{
		{
			name:   "missing secrets",
			data:   "MONGO_URI=mongodb://localhost:27017\n",
			fields: []string{"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"},
		},
		{
			name:   "unknown blob driver",
			data:   "MONGO_URI=mongodb://localhost:27017\nACCESS_TOKEN_SECRET=a\nREFRESH_TOKEN_SECRET=b\nBLOB_DRIVER=s3\n",
			fields: []string{"BLOB_DRIVER"},
		},
		{
			name:   "memory store in production",
			data:   "MONGO_URI=mongodb://localhost:27017\nACCESS_TOKEN_SECRET=a\nREFRESH_TOKEN_SECRET=b\nENVIRONMENT=production\n",
			fields: []string{"BLOB_DRIVER"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tc.data))

			var ve common.ValidationError
			require.ErrorAs(t, err, &ve)
			for _, f := range tc.fields {
				assert.Contains(t, ve.Errors, f)
			}
		})
	}
}
