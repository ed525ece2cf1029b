package records

import (
	"context"
	"fmt"
	"net/http"

	"github.com/campusclinic/console/pkg/common/models"
)

// User account management, ADMIN-only on the backend. Reads never include
// passwords; update with an empty password leaves the current one in place.

func (s *Service) UsersList(ctx context.Context) ([]models.UserAccount, error) {
	res := s.cache.Fetch(ctx, keyUsersList, s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out []models.UserAccount
		if err := s.api.JSON(ctx, http.MethodGet, "/api/admin/users/list", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.([]models.UserAccount)
	return data, res.Err
}

func (s *Service) User(ctx context.Context, id int) (models.UserAccount, error) {
	res := s.cache.Fetch(ctx, keyUser(id), s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out models.UserAccount
		if err := s.api.JSON(ctx, http.MethodGet, fmt.Sprintf("/api/admin/users/%d", id), nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.(models.UserAccount)
	return data, res.Err
}

func (s *Service) CreateUser(ctx context.Context, u models.UserAccount) (models.UserAccount, error) {
	var created models.UserAccount
	if err := s.api.JSON(ctx, http.MethodPost, "/api/admin/users/add", u, &created); err != nil {
		return models.UserAccount{}, err
	}
	s.invalidate(MutationUserWrite, created.ID, 0)
	return created, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int, u models.UserAccount) (models.UserAccount, error) {
	var updated models.UserAccount
	if err := s.api.JSON(ctx, http.MethodPut, fmt.Sprintf("/api/admin/users/update/%d", id), u, &updated); err != nil {
		return models.UserAccount{}, err
	}
	s.invalidate(MutationUserWrite, id, 0)
	return updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int) error {
	if err := s.api.JSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/delete/%d", id), nil, nil); err != nil {
		return err
	}
	s.invalidate(MutationUserWrite, id, 0)
	return nil
}
