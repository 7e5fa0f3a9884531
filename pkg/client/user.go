package client

import (
	"context"

	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// CurrentUserPath is the "who am I" endpoint.
const CurrentUserPath = "/api/currentUser"

// CurrentUserRequest is the request used to fetch the logged-in user.
func CurrentUserRequest() Request {
	return Get(CurrentUserPath, nil)
}

// CurrentUser fetches the logged-in user directly, bypassing any cache.
func CurrentUser(ctx context.Context, t Transport) (*v1.CurrentUser, error) {
	var out v1.CurrentUser
	if err := DoJSON(ctx, t, CurrentUserRequest(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
