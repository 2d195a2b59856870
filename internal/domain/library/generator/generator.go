package generator

import (
	"context"

	"storybook/internal/domain/story"
)

// StoryGenerator turns books from an online source into storybooks.
type StoryGenerator interface {
	ListOnlineResources(ctx context.Context) ([]*story.OnlineResource, error)
	LoadResource(ctx context.Context, r *story.OnlineResource) (*story.Book, error)
}
