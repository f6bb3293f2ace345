package session

import (
	"testing"

	"github.com/danglnh07/titan/fault"
	"github.com/stretchr/testify/require"
)

func loginAs(t *testing.T, m *Manager, email string) {
	t.Helper()
	_, ok := m.Login(email, testPassword)
	require.True(t, ok)
}

func TestSendFriendRequestRecordsBothSides(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	bobID := signup(t, m, "Bob", "bob", "bob@example.com")

	require.NoError(t, m.SendFriendRequest(adaID))

	bob, _ := ids.Lookup(bobID)
	ada, _ := ids.Lookup(adaID)
	require.Contains(t, bob.FriendRequestsSent, adaID)
	require.Contains(t, ada.FriendRequestsReceived, bobID)
	require.Empty(t, bob.FriendIDs)
	require.Empty(t, ada.FriendIDs)
}

func TestSendFriendRequestRejections(t *testing.T) {
	m, _ := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	bobID := signup(t, m, "Bob", "bob", "bob@example.com")

	require.Equal(t, "friends.error_sending_request", m.SendFriendRequest(bobID).Error())
	require.True(t, fault.IsKind(m.SendFriendRequest("ghost"), fault.NotFound))

	require.NoError(t, m.SendFriendRequest(adaID))
	require.Equal(t, "friends.request_already_sent", m.SendFriendRequest(adaID).Error())

	// The counterpart sees the pending edge from the other direction
	loginAs(t, m, "ada@example.com")
	require.Equal(t, "friends.request_already_received", m.SendFriendRequest(bobID).Error())

	require.NoError(t, m.AcceptFriendRequest(bobID))
	require.Equal(t, "friends.already_friends", m.SendFriendRequest(bobID).Error())
}

func TestAcceptFriendRequestSymmetry(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	bobID := signup(t, m, "Bob", "bob", "bob@example.com")

	require.NoError(t, m.SendFriendRequest(adaID))
	loginAs(t, m, "ada@example.com")
	require.NoError(t, m.AcceptFriendRequest(bobID))

	ada, _ := ids.Lookup(adaID)
	bob, _ := ids.Lookup(bobID)
	require.Contains(t, ada.FriendIDs, bobID)
	require.Contains(t, bob.FriendIDs, adaID)
	require.Empty(t, ada.FriendRequestsReceived)
	require.Empty(t, bob.FriendRequestsSent)
}

func TestAcceptWithoutPendingRequest(t *testing.T) {
	m, _ := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	signup(t, m, "Bob", "bob", "bob@example.com")

	require.True(t, fault.IsKind(m.AcceptFriendRequest(adaID), fault.NotFound))
}

func TestRejectFriendRequest(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	bobID := signup(t, m, "Bob", "bob", "bob@example.com")

	require.NoError(t, m.SendFriendRequest(adaID))
	loginAs(t, m, "ada@example.com")
	require.NoError(t, m.RejectFriendRequest(bobID))

	ada, _ := ids.Lookup(adaID)
	bob, _ := ids.Lookup(bobID)
	require.Empty(t, ada.FriendRequestsReceived)
	require.Empty(t, bob.FriendRequestsSent)
	require.Empty(t, ada.FriendIDs)
	require.Empty(t, bob.FriendIDs)
}

func TestUnfriendRemovesBothSides(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	bobID := signup(t, m, "Bob", "bob", "bob@example.com")

	require.NoError(t, m.SendFriendRequest(adaID))
	loginAs(t, m, "ada@example.com")
	require.NoError(t, m.AcceptFriendRequest(bobID))

	require.NoError(t, m.Unfriend(bobID))
	ada, _ := ids.Lookup(adaID)
	bob, _ := ids.Lookup(bobID)
	require.Empty(t, ada.FriendIDs)
	require.Empty(t, bob.FriendIDs)
}

func TestBlockIsUnilateralAndIdempotent(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	bobID := signup(t, m, "Bob", "bob", "bob@example.com")

	require.NoError(t, m.Block(adaID))
	require.NoError(t, m.Block(adaID))

	bob, _ := ids.Lookup(bobID)
	ada, _ := ids.Lookup(adaID)
	require.Equal(t, []string{adaID}, bob.BlockedIDs)
	require.Empty(t, ada.BlockedIDs)

	require.NoError(t, m.Unblock(adaID))
	require.NoError(t, m.Unblock(adaID))
	bob, _ = ids.Lookup(bobID)
	require.Empty(t, bob.BlockedIDs)
}
