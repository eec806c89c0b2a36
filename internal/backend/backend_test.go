package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/observability"
	"git.home.luguber.info/inful/cmsbridge/internal/vcs"
)

func TestAuthenticateStoresIdentity(t *testing.T) {
	client := &fakeClient{
		currentUser: func(context.Context) (*vcs.User, error) {
			return &vcs.User{ID: 1, Login: "editor"}, nil
		},
	}
	b := newTestBackend(client)

	user, err := b.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "editor", user.Login)
	assert.Equal(t, "editor", b.actorLogin())
	assert.Equal(t, "tok", b.Token())
}

func TestAuthenticateFailure(t *testing.T) {
	client := &fakeClient{
		currentUser: func(context.Context) (*vcs.User, error) {
			return nil, ferrors.AuthError("bad token").Build()
		},
	}
	b := newTestBackend(client)

	_, err := b.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAuth))
	assert.Empty(t, b.actorLogin())
}

func TestAuthStatus(t *testing.T) {
	ok := &fakeClient{
		currentUser: func(context.Context) (*vcs.User, error) {
			return &vcs.User{Login: "editor"}, nil
		},
	}
	assert.True(t, newTestBackend(ok).AuthStatus(context.Background()))

	bad := &fakeClient{
		currentUser: func(context.Context) (*vcs.User, error) {
			return nil, ferrors.AuthError("expired").Build()
		},
	}
	assert.False(t, newTestBackend(bad).AuthStatus(context.Background()))
}

func TestOperationsAnnotateLogContext(t *testing.T) {
	var seen observability.LogContext
	client := &fakeClient{
		workflowStatus: func(ctx context.Context, branch string) (*vcs.BranchWorkflow, error) {
			seen = observability.GetContext(ctx)
			return &vcs.BranchWorkflow{Branch: branch, Status: vcs.StatusDraft}, nil
		},
		setWorkflowStatus: func(context.Context, string, vcs.BranchWorkflow) error { return nil },
	}
	b := newTestBackend(client)

	err := b.UpdateWorkflowStatus(context.Background(),
		UnpublishedEntryRequest{ID: "posts/hello"}, vcs.StatusPendingReview)
	require.NoError(t, err)

	assert.Equal(t, opUpdateWorkflowStatus, seen.Operation)
	assert.Equal(t, "posts/hello", seen.EntryKey)
}

func TestLogoutClearsState(t *testing.T) {
	client := &fakeClient{
		currentUser: func(context.Context) (*vcs.User, error) {
			return &vcs.User{Login: "editor"}, nil
		},
	}
	b := newTestBackend(client)

	_, err := b.Authenticate(context.Background())
	require.NoError(t, err)

	b.Logout()
	assert.Empty(t, b.actorLogin())
	assert.Empty(t, b.Token())
}
