package reviews

import "context"

type Store interface {
	// Create assigns ID, CreatedAt and UpdatedAt. Any caller supplied ID is ignored.
	Create(context.Context, *Review) error
	GetByID(context.Context, string) (*Review, error)
	GetPaginated(context.Context, Query) (*Page, error)
	Update(context.Context, string, Update) (*Review, error)
	Delete(context.Context, string) error
	EnsureSchema(context.Context) error
}

func normalizeImages(r *Review) {
	if r.Images == nil {
		r.Images = []string{}
	}
}
