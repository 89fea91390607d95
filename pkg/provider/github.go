package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

const githubUserEndpoint = "https://api.github.com/user"

// GitHubProvider verifies GitHub access tokens by resolving the
// authenticated user behind them.
type GitHubProvider struct{}

// NewGitHubProvider creates a GitHubProvider.
func NewGitHubProvider() *GitHubProvider {
	return &GitHubProvider{}
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// VerifyAccessToken resolves the user the access token belongs to and
// confirms it matches the claimed subject. Returns the account email
// as reported by GitHub, which may be empty for users with a private
// email address.
func (p *GitHubProvider) VerifyAccessToken(ctx context.Context, accessToken, subject string) (string, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(ctx, src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubUserEndpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New("github token rejected")
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", err
	}

	if subject != "" && strconv.FormatInt(user.ID, 10) != subject {
		return "", ErrSubjectMismatch
	}

	return user.Email, nil
}
