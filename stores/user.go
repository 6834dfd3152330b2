package stores

import (
	"context"
	"slices"

	"github.com/zoobzio/storefront"
)

// UserModel exposes the authenticated user held by a UserStore.
type UserModel struct {
	*storefront.DataModel[*User]
}

// SimplifiedUser returns the event reference of the authenticated user.
func (m *UserModel) SimplifiedUser() (SimplifiedUser, bool) {
	u := m.Data()
	if u == nil {
		return SimplifiedUser{}, false
	}
	return SimplifiedUser{ID: u.ID, UserName: u.UserName}, true
}

// UserStore holds the authenticated user. The auth user lives under
// storefront.KeyAuthUser and every user ever seen under storefront.KeyUsers.
type UserStore struct {
	*storefront.Store[*User]
	Model *UserModel

	deps Deps
}

// NewUserStore creates a UserStore.
func NewUserStore(deps Deps) *UserStore {
	d := deps.withDefaults()
	s := &UserStore{deps: d}
	s.Store = newStore("users", d, loadOr[*User](d, storefront.KeyAuthUser))
	s.Model = &UserModel{storefront.NewDataModel(storefront.Producer(s.Store.Value))}
	return s
}

// IsAuth reports whether a user is logged in.
func (s *UserStore) IsAuth() bool {
	return s.Model.Data() != nil
}

// Login makes userName the authenticated user, creating a record for unknown
// names, then refreshes. Failures are reported in the background.
func (s *UserStore) Login(ctx context.Context, userName string) bool {
	return s.Mutate(ctx, "login", func(ctx context.Context) error {
		users, _, err := storefront.Load[[]User](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyUsers)
		if err != nil {
			return err
		}
		if i := slices.IndexFunc(users, func(u User) bool { return u.UserName == userName }); i >= 0 {
			return storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyAuthUser, users[i])
		}
		user := User{
			ID:        nextUserID(users),
			UserName:  userName,
			Favorites: []int{},
		}
		return storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyAuthUser, user)
	})
}

// Logout stores the authenticated user into the user list, replacing the
// entry with the same id, removes the auth user and refreshes. Logging out
// with nobody logged in is reported as KindAuthMissing and skips the refresh.
func (s *UserStore) Logout(ctx context.Context) bool {
	return s.Mutate(ctx, "logout", func(ctx context.Context) error {
		users, _, err := storefront.Load[[]User](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyUsers)
		if err != nil {
			return err
		}
		auth, ok, err := storefront.Load[*User](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyAuthUser)
		if err != nil {
			return err
		}
		if !ok || auth == nil {
			return &storefront.Error{Kind: storefront.KindAuthMissing, Op: "logout", Err: storefront.ErrAuthMissing}
		}

		if i := slices.IndexFunc(users, func(u User) bool { return u.ID == auth.ID }); i >= 0 {
			users[i] = *auth
		} else {
			users = append(users, *auth)
		}
		if err := storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyUsers, users); err != nil {
			return err
		}
		return storefront.Delete(ctx, s.deps.Storage, storefront.KeyAuthUser)
	})
}

// UpdateAuthUserFields merges fields over the authenticated user and
// refreshes. Unlike the background operations, failures here interrupt the
// user: a missing auth user or a storage error raises an alert and the store
// is not refreshed.
func (s *UserStore) UpdateAuthUserFields(ctx context.Context, fields UserFields) bool {
	err := s.Exclusive(ctx, func(ctx context.Context) error {
		auth, ok, err := storefront.Load[*User](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyAuthUser)
		if err != nil {
			return err
		}
		if !ok || auth == nil {
			return storefront.ErrAuthMissing
		}
		return storefront.Save(ctx, s.deps.Storage, s.deps.Codec, storefront.KeyAuthUser, fields.Apply(*auth))
	})
	if err != nil {
		storefront.RaiseAlert(ctx, s.deps.Alerter, "Error", storefront.AlertMessage(err))
		return false
	}
	s.Refresh(ctx)
	return true
}

// Users returns every stored user record, not including a logged in user
// that was never logged out.
func (s *UserStore) Users(ctx context.Context) ([]User, error) {
	users, _, err := storefront.Load[[]User](ctx, s.deps.Storage, s.deps.Codec, storefront.KeyUsers)
	return users, err
}

func nextUserID(users []User) int {
	next := 1
	for _, u := range users {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	return next
}
