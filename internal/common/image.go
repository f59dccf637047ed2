package common

const MaxImageSize = 5 << 20

type imageFile struct {
	Filename    string `validate:"required"`
	ContentType string `validate:"required,startswith=image/"`
	Size        int64  `validate:"gte=0,lte=5242880"`
}

// CheckImage records an error for every way f fails to be an acceptable image upload.
func (v *Validator) CheckImage(f *File) {
	if f == nil {
		v.AddError("file", "must be provided")
		return
	}

	v.CheckStruct(imageFile{
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        int64(len(f.Data)),
	})
}
