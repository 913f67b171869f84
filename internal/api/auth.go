package api

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

const authRealm = `Basic realm="padnode API"`

var (
	errNoCredentials  = errors.New("authentication required")
	errBadCredentials = errors.New("invalid credentials format")
)

// credentials reads user and password from the Authorization header, or
// from the base64 "auth" query parameter that EventSource clients use
// since they cannot set headers.
func credentials(ctx huma.Context) (user, pass string, err error) {
	var encoded string
	if header := ctx.Header("Authorization"); header != "" {
		var ok bool
		if encoded, ok = strings.CutPrefix(header, "Basic "); !ok {
			return "", "", errBadCredentials
		}
	} else if encoded = ctx.Query("auth"); encoded == "" {
		return "", "", errNoCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", errBadCredentials
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", errBadCredentials
	}
	return user, pass, nil
}

// basicAuth guards every operation that declares a security requirement.
// Operations registered with an empty Security list stay open.
func basicAuth(api huma.API, username, password string) func(huma.Context, func(huma.Context)) {
	match := func(got, want string) bool {
		return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
	}
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		user, pass, err := credentials(ctx)
		if err == nil && !(match(user, username) && match(pass, password)) {
			err = errors.New("invalid credentials")
		}
		if err != nil {
			ctx.SetHeader("WWW-Authenticate", authRealm)
			huma.WriteErr(api, ctx, http.StatusUnauthorized, err.Error())
			return
		}
		next(ctx)
	}
}
