package ui

import (
	"context"
	"encoding/base64"
	"strconv"

	"adminpanel/internal/client"
)

// PostFields is the local state of the post form. Picture is the stored
// reference; Preview shows either it or the staged file.
type PostFields struct {
	Title   string
	Content string
	Picture string
	Preview string
	Staged  *client.Attachment
}

// StagePicture queues a file for the next submit and previews it locally.
func (f *PostFields) StagePicture(file client.Attachment) {
	f.Staged = &file
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f.Preview = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)
}

type PostsView = ListView[client.Post, PostFields]

type postBackend struct {
	api *client.Client
}

func (b postBackend) List(ctx context.Context, page int) (*client.Page[client.Post], error) {
	return b.api.ListPosts(ctx, page)
}

func (b postBackend) Delete(ctx context.Context, id uint) (string, error) {
	return b.api.DeletePost(ctx, id)
}

func (b postBackend) Create(ctx context.Context, fields PostFields) (string, error) {
	res, err := b.api.CreatePost(ctx, postForm(fields))
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (b postBackend) Update(ctx context.Context, id uint, fields PostFields) (string, error) {
	res, err := b.api.UpdatePost(ctx, id, postForm(fields))
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func postForm(fields PostFields) client.PostForm {
	return client.PostForm{
		Title:   fields.Title,
		Content: fields.Content,
		Picture: fields.Staged,
	}
}

func NewPostsView(api *client.Client, notifier *Notifier) *PostsView {
	backend := postBackend{api: api}
	modal := NewFormModal(FormSchema[client.Post, PostFields]{
		Noun:  "post",
		Blank: func() PostFields { return PostFields{} },
		Seed: func(p client.Post) (uint, PostFields) {
			return p.ID, PostFields{
				Title:   p.Title,
				Content: p.Content,
				Picture: p.Picture,
				Preview: p.Picture,
			}
		},
	}, backend, notifier)

	return NewListView[client.Post, PostFields](backend, Layout[client.Post]{
		Noun:    "post",
		Headers: []string{"ID", "Title", "Content", "Picture", "Created At", "Updated At"},
		Empty:   "No posts found.",
		ID:      func(p client.Post) uint { return p.ID },
		Row: func(p client.Post) []string {
			picture := p.Picture
			if picture == "" {
				picture = "No Picture"
			}
			return []string{
				strconv.FormatUint(uint64(p.ID), 10),
				p.Title,
				p.Content,
				picture,
				p.CreatedAt.Local().Format(dateLayout),
				p.UpdatedAt.Local().Format(dateLayout),
			}
		},
	}, modal, notifier)
}
