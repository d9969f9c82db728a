package ui

import (
	"context"
	"strconv"

	"adminpanel/internal/client"
)

const dateLayout = "2006-01-02 15:04"

type UserFields struct {
	Name     string
	Email    string
	Password string
}

type UsersView = ListView[client.User, UserFields]

type userBackend struct {
	api *client.Client
}

func (b userBackend) List(ctx context.Context, page int) (*client.Page[client.User], error) {
	return b.api.ListUsers(ctx, page)
}

func (b userBackend) Delete(ctx context.Context, id uint) (string, error) {
	return b.api.DeleteUser(ctx, id)
}

func (b userBackend) Create(ctx context.Context, fields UserFields) (string, error) {
	res, err := b.api.CreateUser(ctx, client.UserForm(fields))
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (b userBackend) Update(ctx context.Context, id uint, fields UserFields) (string, error) {
	res, err := b.api.UpdateUser(ctx, id, client.UserForm(fields))
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func NewUsersView(api *client.Client, notifier *Notifier) *UsersView {
	backend := userBackend{api: api}
	modal := NewFormModal(FormSchema[client.User, UserFields]{
		Noun:  "user",
		Blank: func() UserFields { return UserFields{} },
		Seed: func(u client.User) (uint, UserFields) {
			return u.ID, UserFields{Name: u.Name, Email: u.Email}
		},
	}, backend, notifier)

	return NewListView[client.User, UserFields](backend, Layout[client.User]{
		Noun:    "user",
		Headers: []string{"ID", "Name", "Email", "Created At", "Updated At"},
		Empty:   "No users found.",
		ID:      func(u client.User) uint { return u.ID },
		Row: func(u client.User) []string {
			return []string{
				strconv.FormatUint(uint64(u.ID), 10),
				u.Name,
				u.Email,
				u.CreatedAt.Local().Format(dateLayout),
				u.UpdatedAt.Local().Format(dateLayout),
			}
		},
	}, modal, notifier)
}
