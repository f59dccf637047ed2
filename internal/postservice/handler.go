package postservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkpost/internal/blobstore"
	"github.com/sushihentaime/inkpost/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postsSequence = "posts"

// NewPostService wires the post store. producer may be nil, in which case blobs that
// could not be removed by HardDelete are only logged.
func NewPostService(db *mongo.Database, blobs blobstore.Store, producer common.MessageProducer, logger *slog.Logger) *PostService {
	return &PostService{
		m:        newPostModel(db),
		blobs:    blobs,
		seq:      common.NewSequencer(db),
		producer: producer,
		logger:   logger,
	}
}

// Find returns the post matching f with its body read back from the blob store.
func (s *PostService) Find(ctx context.Context, f Filter) (*Post, error) {
	post, err := s.m.findOne(ctx, f.query())
	if err != nil {
		return nil, err
	}

	if err := s.inlineContents(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// List returns post metadata only. Asking for the body field is a validation error.
func (s *PostService) List(ctx context.Context, f Filter, o ListOptions) ([]Post, error) {
	v := common.NewValidator()
	proj := projection(v, o.Fields)
	sort, ok := o.Sort.order()
	v.Check(ok, "sort", "must be a known sort order")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if o.Limit < 1 {
		o.Limit = PostsPageSize
	}

	if o.Skip < 0 {
		o.Skip = 0
	}

	opts := options.Find().
		SetProjection(proj).
		SetSort(sort).
		SetLimit(o.Limit).
		SetSkip(o.Skip)

	return s.m.find(ctx, f.query(), opts)
}

// Create stores the post metadata first and then its blobs. When the blob phase fails
// the post is kept and returned along with the error; the caller may retry with Update.
func (s *PostService) Create(ctx context.Context, req *CreatePostRequest, thumbnail *common.File) (*Post, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateImages(v, req.Images)
	validateAuthor(v, req.Author)
	if thumbnail != nil {
		v.CheckImage(thumbnail)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	n, err := s.seq.Next(ctx, postsSequence)
	if err != nil {
		return nil, err
	}

	images := req.Images
	if images == nil {
		images = []common.Image{}
	}

	post := &Post{
		Base:       common.Base{CreatedAt: time.Now().UTC().Truncate(time.Millisecond)},
		PostNumber: n,
		Title:      req.Title,
		Author:     common.UserRef{ID: req.Author},
		Thumbnail:  common.EmptyImage(),
		Images:     images,
	}

	if err := s.m.insert(ctx, post); err != nil {
		return nil, err
	}

	body := common.SanitizeHTML(req.Contents)
	var contents *string
	if body != "" {
		contents = &body
	}

	if contents == nil && thumbnail == nil {
		return post, nil
	}

	set, err := s.uploadBlobs(ctx, post.ID, contents, thumbnail)
	if len(set) > 0 {
		patched, perr := s.m.update(ctx, bson.M{"_id": post.ID}, set)
		if perr != nil {
			return post, errors.Join(err, perr)
		}
		post = patched
		post.Contents = body
	}
	if err != nil {
		return post, err
	}

	return post, nil
}

// Update applies p to the live post matching f. New blobs are written before the
// metadata so the document never points at a key that was not uploaded.
func (s *PostService) Update(ctx context.Context, f Filter, p Patch, thumbnail *common.File) (*Post, error) {
	v := common.NewValidator()
	if p.Title != nil {
		validateTitle(v, *p.Title)
	}
	if p.Images != nil {
		validateImages(v, *p.Images)
	}
	if thumbnail != nil {
		v.CheckImage(thumbnail)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if p.Contents != nil {
		body := common.SanitizeHTML(*p.Contents)
		p.Contents = &body
	}

	f.IncludeDeleted = false
	existing, err := s.m.findOne(ctx, f.query())
	if err != nil {
		return nil, err
	}

	set, err := s.uploadBlobs(ctx, existing.ID, p.Contents, thumbnail)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Images != nil {
		images := *p.Images
		if images == nil {
			images = []common.Image{}
		}
		set["images"] = images
	}
	set["updatedAt"] = time.Now().UTC()

	post, err := s.m.update(ctx, bson.M{"_id": existing.ID, "isDeleted": false}, set)
	if err != nil {
		return nil, err
	}

	// A thumbnail with a new extension lands on a new key and leaves the old one behind.
	if superseded := existing.Thumbnail.Key; thumbnail != nil && superseded != "" && superseded != post.Thumbnail.Key {
		s.removeBlobs(ctx, existing.ID, superseded)
	}

	if p.Contents != nil {
		post.Contents = *p.Contents
		return post, nil
	}

	if err := s.inlineContents(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// SoftDelete flags the live post matching f as deleted. Its blobs are kept.
func (s *PostService) SoftDelete(ctx context.Context, f Filter) (*Post, error) {
	f.IncludeDeleted = false
	now := time.Now().UTC()

	return s.m.update(ctx, f.query(), bson.M{
		"isDeleted": true,
		"deletedAt": now,
		"updatedAt": now,
	})
}

// HardDelete removes the post matching f, deleted or not, and then its body and
// thumbnail blobs. Blob failures never fail the call: the keys are logged and
// published for the reaper.
func (s *PostService) HardDelete(ctx context.Context, f Filter) (*Post, error) {
	f.IncludeDeleted = true
	post, err := s.m.delete(ctx, f.query())
	if err != nil {
		return nil, err
	}

	s.removeBlobs(ctx, post.ID, post.ContentsKey, post.Thumbnail.Key)

	return post, nil
}

// removeBlobs deletes keys best effort. Keys that could not be deleted are logged
// and published for the reaper.
func (s *PostService) removeBlobs(ctx context.Context, id primitive.ObjectID, keys ...string) {
	var orphans []string
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete blob", slog.String("key", key), slog.String("post", id.Hex()), slog.String("error", err.Error()))
			orphans = append(orphans, key)
		}
	}

	if len(orphans) > 0 {
		s.reportOrphans(ctx, orphans)
	}
}

func (s *PostService) reportOrphans(ctx context.Context, keys []string) {
	if s.producer == nil {
		return
	}

	msg, err := json.Marshal(blobstore.OrphanedBlobs{Keys: keys})
	if err != nil {
		s.logger.Error("failed to marshal orphaned blobs", slog.String("error", err.Error()))
		return
	}

	if err := s.producer.Publish(ctx, msg, common.BlobOrphanedKey, common.BlobExchange); err != nil {
		s.logger.Error("failed to publish orphaned blobs", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// uploadBlobs writes the body and thumbnail for the post id and returns the
// metadata fields that reference them. An empty body clears the reference.
func (s *PostService) uploadBlobs(ctx context.Context, id primitive.ObjectID, contents *string, thumbnail *common.File) (bson.M, error) {
	set := bson.M{}

	if contents != nil {
		if *contents == "" {
			set[contentsField] = ""
		} else {
			key := blobstore.ContentsKey(id.Hex())
			if _, err := s.blobs.Put(ctx, key, []byte(*contents), "text/html"); err != nil {
				return set, blobError("put "+key, err)
			}
			set[contentsField] = key
		}
	}

	if thumbnail != nil {
		key := blobstore.ThumbnailKey(id.Hex(), thumbnail.Filename)
		src, err := s.blobs.Put(ctx, key, thumbnail.Data, thumbnail.ContentType)
		if err != nil {
			return set, blobError("put "+key, err)
		}
		set["thumbnail"] = common.Image{
			Key:      key,
			Src:      src,
			Filename: thumbnail.Filename,
			Mimetype: thumbnail.ContentType,
			Size:     int64(len(thumbnail.Data)),
		}
	}

	return set, nil
}

func (s *PostService) inlineContents(ctx context.Context, post *Post) error {
	if post.ContentsKey == "" {
		return nil
	}

	body, err := s.blobs.Get(ctx, post.ContentsKey)
	if err != nil {
		return blobError("get "+post.ContentsKey, err)
	}

	post.Contents = string(body)
	return nil
}

// blobError makes sure blob store failures reach callers as upstream errors.
func blobError(op string, err error) error {
	var ue *common.UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return common.NewUpstreamError(op, err)
}
