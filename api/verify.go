package api

import (
	"log"
	"net/http"
)

// Landing pages served from public/ that verification redirects to.
const (
	verifiedPage    = "/verified.html"
	verifyErrorPage = "/verify-error.html"
)

// Verify is the handler for /api/verify.
//   GET /api/verify?token=<token>
// Marks the matching submission as verified and clears its token, then
// redirects to a static landing page. A missing, unknown, or
// already-redeemed token all land on the same error page, so callers
// can't probe verification state.
func (api API) verify(r *http.Request) response {
	if r.Method != http.MethodGet {
		return methodNotAllowed("/api/verify", "GET")
	}
	token := r.FormValue("token")
	if token == "" {
		return response{StatusCode: http.StatusFound, redirect: verifyErrorPage}
	}
	if _, err := api.Database.UseVerifyToken(token); err != nil {
		log.Printf("Verification failed: %v", err)
		return response{StatusCode: http.StatusFound, redirect: verifyErrorPage}
	}
	return response{StatusCode: http.StatusFound, redirect: verifiedPage}
}
