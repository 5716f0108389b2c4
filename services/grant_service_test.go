package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	f.subscribe(t, "1")

	for _, target := range []string{"1", "404", "not-a-number"} {
		_, err := f.grants.Grant(ctx, target, "first-claim", "1")
		assert.ErrorIs(t, err, ErrUnauthorized, target)
	}

	user, err := f.store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, user.Achievements)
	assert.Empty(t, f.notifier.messages())
}

func TestGrantDisabledWithoutAdmin(t *testing.T) {
	store := newTestLedger(t)
	grants := NewGrantService(store, defaultTable(t), nil, "")

	assert.False(t, grants.IsAdmin(""))
	_, err := grants.Grant(context.Background(), "1", "first-claim", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGrantBypassesThresholds(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	f.subscribe(t, "1")

	res, err := f.grants.Grant(ctx, "1", "Games Veteran", " 999 ")
	require.NoError(t, err)
	assert.Equal(t, GrantStatusGranted, res.Status)
	assert.Equal(t, "veteran-collector", res.Achievement)

	user, err := f.store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, user.ClaimedCount)
	require.Len(t, user.Achievements, 1)
	assert.Equal(t, "grant", user.Achievements[0].Source)
	assert.Equal(t, adminID, user.Achievements[0].GrantedBy)

	msgs := f.notifier.to("1")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Games Veteran")
}

func TestGrantCustomAchievement(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	f.subscribe(t, "1")

	res, err := f.grants.Grant(ctx, "1", "Bug Hunter", adminID)
	require.NoError(t, err)
	assert.Equal(t, "bug-hunter", res.Achievement)
	assert.Equal(t, "Bug Hunter", res.Title)
}

func TestGrantErrors(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	f.subscribe(t, "1")

	_, err := f.grants.Grant(ctx, "404", "first-claim", adminID)
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = f.grants.Grant(ctx, "1", "  ", adminID)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = f.grants.Grant(ctx, "abc", "first-claim", adminID)
	assert.ErrorIs(t, err, ErrMalformedInput)
}
