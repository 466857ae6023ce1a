/*
Package s21 is a small client for the School 21 platform API.

It covers the two calls the campus bot needs: the Keycloak password grant used
to obtain an access token, and the per-cluster seat map. Tokens are cached by a
TokenSource which re-authenticates only after the cached token expires:

	client := s21.NewClient(authURL, apiURL)
	tokens := s21.NewTokenSource(client, login, password)

	token, err := tokens.Token(ctx)
	seats, err := client.ClusterMap(ctx, token, "36621")

All outbound requests go through an optional rate limiter so a burst of
cluster fetches stays inside the platform's per-second quota.
*/
package s21
