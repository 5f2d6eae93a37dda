package repository

import (
	"context"
	"time"

	"mbs-manager/internal/core"
	"mbs-manager/internal/store"
)

type ProfileRepository interface {
	Get(ctx context.Context, id string) (*core.Profile, error)
	Create(ctx context.Context, in ProfileInput) (*core.Profile, error)
	Update(ctx context.Context, id string, u ProfileUpdate) (*core.Profile, error)
	List(ctx context.Context) ([]core.Profile, error)
}

type profileRepository struct {
	db  store.DB
	now func() time.Time
}

func NewProfileRepository(client *store.Client) ProfileRepository {
	return &profileRepository{db: client.DB(), now: time.Now}
}

func (r *profileRepository) Get(ctx context.Context, id string) (*core.Profile, error) {
	return store.One[core.Profile](ctx, r.db, store.From("profiles").Eq("id", id))
}

func (r *profileRepository) Create(ctx context.Context, in ProfileInput) (*core.Profile, error) {
	return store.ExecOne[core.Profile](ctx, r.db, store.Insert{
		Into: "profiles",
		Rows: []store.Values{store.Values{}.
			Set("id", in.ID).
			Set("email", in.Email).
			Set("full_name", in.FullName).
			Set("role", in.Role)},
	})
}

func (r *profileRepository) Update(ctx context.Context, id string, u ProfileUpdate) (*core.Profile, error) {
	return store.ExecOne[core.Profile](ctx, r.db, store.Update{
		In: "profiles",
		Set: store.Values{}.
			Set("full_name", u.FullName).
			Set("phone", core.StringPtr(u.Phone)).
			Set("company_name", core.StringPtr(u.CompanyName)).
			Set("updated_at", r.now()),
		Where: store.Eq("id", id),
	})
}

func (r *profileRepository) List(ctx context.Context) ([]core.Profile, error) {
	return store.Select[core.Profile](ctx, r.db, store.From("profiles").Order("full_name", false))
}
