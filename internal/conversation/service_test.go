// ABOUTME: Tests for the conversation service
// ABOUTME: Uses a fake client to observe assembled requests and injected failures

package conversation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/promptgate/internal/access"
	"github.com/2389/promptgate/internal/prompt"
	"github.com/2389/promptgate/internal/provider"
	"github.com/2389/promptgate/internal/store"
)

// fakeClient records the last request and returns a canned response or error
type fakeClient struct {
	lastReq *provider.Request
	resp    *provider.Response
	err     error
}

func (f *fakeClient) Generate(_ context.Context, req provider.Request) (*provider.Response, error) {
	f.lastReq = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func setupService(t *testing.T) (*Service, *fakeClient, *fakeClient, *prompt.Resolver) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.EnsureUser(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, st.SetPermission(ctx, "admin-1", store.PermissionAdmin))

	gate := access.NewGate(st, []string{"admin-1"})
	resolver := prompt.NewResolver(st, gate, "default prompt")

	registry, err := provider.NewRegistry([]provider.Info{
		{ID: provider.ProviderOpenAI, DisplayName: "OpenAI", Params: provider.Params{Model: "gpt-4o", MaxTokens: 1024}},
		{ID: provider.ProviderAnthropic, DisplayName: "Anthropic", Params: provider.Params{Model: "claude-sonnet-4-20250514", MaxTokens: 2048}},
	}, provider.ProviderOpenAI)
	require.NoError(t, err)

	openaiFake := &fakeClient{resp: &provider.Response{Text: "openai says hi"}}
	anthropicFake := &fakeClient{resp: &provider.Response{Text: "anthropic says hi"}}
	clients := map[provider.ID]provider.Client{
		provider.ProviderOpenAI:    openaiFake,
		provider.ProviderAnthropic: anthropicFake,
	}

	svc := NewService(registry, resolver, gate, clients)
	return svc, openaiFake, anthropicFake, resolver
}

func TestAssemble_SnapshotsSelectionAndPrompt(t *testing.T) {
	svc, _, _, resolver := setupService(t)
	ctx := context.Background()

	_, err := resolver.SetPrompt(ctx, "user-1", "be terse")
	require.NoError(t, err)

	req, err := svc.Assemble(ctx, "user-1", "hello")
	require.NoError(t, err)

	assert.Equal(t, provider.ProviderOpenAI, req.Provider)
	assert.Equal(t, "gpt-4o", req.Params.Model)
	assert.Equal(t, "be terse", req.SystemPrompt)
	assert.Equal(t, "hello", req.UserInput)
}

func TestAssemble_DeniesUnknownUser(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.Assemble(context.Background(), "stranger", "hello")
	assert.ErrorIs(t, err, access.ErrPermissionDenied)
}

func TestSingleTurn_DispatchesToActiveProvider(t *testing.T) {
	svc, openaiFake, anthropicFake, _ := setupService(t)
	ctx := context.Background()

	resp, err := svc.SingleTurn(ctx, "user-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "openai says hi", resp.Text)
	assert.NotNil(t, openaiFake.lastReq)
	assert.Nil(t, anthropicFake.lastReq)
}

func TestSingleTurn_FollowsProviderSwitch(t *testing.T) {
	svc, _, anthropicFake, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.registry.SetActive(provider.ProviderAnthropic))

	resp, err := svc.SingleTurn(ctx, "user-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "anthropic says hi", resp.Text)

	require.NotNil(t, anthropicFake.lastReq)
	assert.Equal(t, "claude-sonnet-4-20250514", anthropicFake.lastReq.Params.Model)
}

func TestSingleTurn_UpstreamErrorPropagates(t *testing.T) {
	svc, openaiFake, _, _ := setupService(t)

	openaiFake.resp = nil
	openaiFake.err = provider.ErrUpstreamUnavailable

	_, err := svc.SingleTurn(context.Background(), "user-1", "hello")
	assert.ErrorIs(t, err, provider.ErrUpstreamUnavailable)
}

func TestSingleTurn_DefaultPromptWhenNoneSet(t *testing.T) {
	svc, openaiFake, _, _ := setupService(t)

	_, err := svc.SingleTurn(context.Background(), "user-1", "hello")
	require.NoError(t, err)

	require.NotNil(t, openaiFake.lastReq)
	assert.Equal(t, "default prompt", openaiFake.lastReq.SystemPrompt)
}
