package identity

import (
	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
)

// Status posts live on the owning account and are mutated in place.

func (store *Store) PostStatus(ownerID, videoURL, caption string) (db.StatusVideo, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	status := db.StatusVideo{
		ID:        store.NewID(),
		OwnerID:   ownerID,
		VideoURL:  videoURL,
		Caption:   caption,
		CreatedAt: store.Now(),
		ViewerIDs: []string{},
		LikerIDs:  []string{},
		Replies:   []db.StatusReply{},
	}

	err := store.mutate(func() error {
		account := store.pointer(ownerID)
		if account == nil {
			return fault.NotFoundf("profile.user_not_found_title")
		}
		account.StatusVideos = append(account.StatusVideos, status)
		return nil
	})
	if err != nil {
		return db.StatusVideo{}, err
	}
	return status, nil
}

// ToggleStatusLike flips the liker's membership in the like set. Toggling
// twice restores the original state.
func (store *Store) ToggleStatusLike(ownerID, statusID, likerID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.mutate(func() error {
		status, err := store.status(ownerID, statusID)
		if err != nil {
			return err
		}
		for i, id := range status.LikerIDs {
			if id == likerID {
				status.LikerIDs = append(status.LikerIDs[:i], status.LikerIDs[i+1:]...)
				return nil
			}
		}
		status.LikerIDs = append(status.LikerIDs, likerID)
		return nil
	})
}

func (store *Store) AddStatusReply(ownerID, statusID, replierID, text string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.mutate(func() error {
		status, err := store.status(ownerID, statusID)
		if err != nil {
			return err
		}
		status.Replies = append(status.Replies, db.StatusReply{
			ID:        store.NewID(),
			SenderID:  replierID,
			Text:      text,
			Timestamp: store.Now(),
		})
		return nil
	})
}

// MarkStatusViewed records the viewer once; repeat calls are no-ops.
func (store *Store) MarkStatusViewed(ownerID, statusID, viewerID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.mutate(func() error {
		status, err := store.status(ownerID, statusID)
		if err != nil {
			return err
		}
		for _, id := range status.ViewerIDs {
			if id == viewerID {
				return nil
			}
		}
		status.ViewerIDs = append(status.ViewerIDs, viewerID)
		return nil
	})
}

// RemoveStatus drops an expired status post. Called by the background worker
// once the post's TTL elapses.
func (store *Store) RemoveStatus(ownerID, statusID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.mutate(func() error {
		account := store.pointer(ownerID)
		if account == nil {
			return fault.NotFoundf("profile.user_not_found_title")
		}
		for i := range account.StatusVideos {
			if account.StatusVideos[i].ID == statusID {
				account.StatusVideos = append(account.StatusVideos[:i], account.StatusVideos[i+1:]...)
				return nil
			}
		}
		return fault.NotFoundf("status.title")
	})
}

func (store *Store) status(ownerID, statusID string) (*db.StatusVideo, error) {
	account := store.pointer(ownerID)
	if account == nil {
		return nil, fault.NotFoundf("profile.user_not_found_title")
	}
	for i := range account.StatusVideos {
		if account.StatusVideos[i].ID == statusID {
			return &account.StatusVideos[i], nil
		}
	}
	return nil, fault.NotFoundf("status.title")
}
