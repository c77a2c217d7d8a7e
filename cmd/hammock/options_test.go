package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/codeinpeace/hammock"
	"github.com/codeinpeace/hammock/internal/testserver"
)

func parse(t *testing.T, args ...string) *Options {
	t.Helper()

	var options Options

	f := pflag.NewFlagSet("hammock", pflag.ContinueOnError)
	options.AddFlags(f)
	require.NoError(t, f.Parse(args))

	return &options
}

func TestRequestFromFlags(t *testing.T) {
	options := parse(t,
		"--authority", "http://api.twitter.com",
		"-p", "statuses/update.json",
		"-X", "post",
		"-H", "Only: on this request",
		"-d", "status=hello world",
		"--basic-username", "hammock",
		"--basic-password", "s3cret",
	)

	req, err := options.Request()
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "on this request", req.Headers.Get("Only"))
	require.Equal(t, "hello world", req.Parameters.Get("status"))
	require.Equal(t, &hammock.BasicAuthCredentials{Username: "hammock", Password: "s3cret"}, req.Credentials)
}

func TestRequestJSONEntity(t *testing.T) {
	options := parse(t, "-p", "email", "--json", `{"From":"a@example.com"}`)

	req, err := options.Request()
	require.NoError(t, err)
	require.Equal(t, json.RawMessage(`{"From":"a@example.com"}`), req.Entity)

	options = parse(t, "-p", "email", "--json", `{"From":`)
	_, err = options.Request()
	require.Error(t, err)
}

func TestRequestFlagErrors(t *testing.T) {
	_, err := parse(t).Request()
	require.ErrorIs(t, err, errMissingPath)

	_, err = parse(t, "-p", "x", "-H", "no-colon").Request()
	require.Error(t, err)

	_, err = parse(t, "-p", "x", "-d", "no-equals").Request()
	require.Error(t, err)

	_, err = parse(t, "-p", "x", "--oauth", "sideways", "--oauth-consumer-key", "k", "--oauth-consumer-secret", "s").Request()
	require.Error(t, err)
}

func TestOAuthFromFlags(t *testing.T) {
	options := parse(t,
		"-p", "request_token",
		"--oauth", "request-token",
		"--oauth-consumer-key", "k",
		"--oauth-consumer-secret", "s",
		"--oauth-signature", "plaintext",
		"--oauth-in-url",
	)

	req, err := options.Request()
	require.NoError(t, err)

	creds, ok := req.Credentials.(*hammock.OAuthCredentials)
	require.True(t, ok)
	require.Equal(t, hammock.RequestToken, creds.Type)
	require.Equal(t, hammock.PlainText, creds.SignatureMethod)
	require.Equal(t, hammock.URLOrPostParameters, creds.ParameterHandling)
}

func TestRunAgainstServer(t *testing.T) {
	server := testserver.New(testserver.WithAccount("hammock", "s3cret"))
	defer server.Close()

	options := parse(t,
		"--authority", server.URL,
		"--version-path", "1",
		"-p", "statuses/home_timeline.json",
		"--basic-username", "hammock",
		"--basic-password", "s3cret",
	)
	require.NoError(t, run(testContext(t), options))
	require.Equal(t, 1, server.Hits("/1/statuses/home_timeline.json"))

	options.BasicPassword = "wrong"
	require.Error(t, run(testContext(t), options))
}
