package azureagent

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/openai/openai-go/option"
)

// Tokens are refreshed this long before they expire.
const tokenRefreshMargin = 2 * time.Minute

func defaultCredential() (azcore.TokenCredential, error) {
	return azidentity.NewDefaultAzureCredential(nil)
}

// tokenSource caches one access token for a single scope.
type tokenSource struct {
	cred  azcore.TokenCredential
	scope string

	mu    sync.Mutex
	token azcore.AccessToken
}

func (s *tokenSource) bearer(req *http.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token.Token != "" && time.Until(s.token.ExpiresOn) > tokenRefreshMargin {
		return s.token.Token, nil
	}
	tok, err := s.cred.GetToken(req.Context(), policy.TokenRequestOptions{Scopes: []string{s.scope}})
	if err != nil {
		return "", fmt.Errorf("get azure token for %s: %w", s.scope, err)
	}
	s.token = tok
	return tok.Token, nil
}

// withBearerToken authenticates every request with a token from src.
// azure.WithTokenCredential is pinned to the Cognitive Services scope, which
// AI Projects endpoints reject.
func withBearerToken(src *tokenSource) option.RequestOption {
	return option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		token, err := src.bearer(req)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return next(req)
	})
}
