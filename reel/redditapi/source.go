package redditapi

import (
	"context"
	"errors"

	"github.com/theimaginaryfoundation/reel-o-bot/reel"
)

// ThreadSource adapts Client to reel.ContentProvider by reading the keeper's current credential.
type ThreadSource struct {
	Client *Client
	Keeper *CredentialKeeper
}

var _ reel.ContentProvider = (*ThreadSource)(nil)

func (s *ThreadSource) FetchThread(ctx context.Context, threadID string) (reel.Thread, error) {
	if s.Client == nil || s.Keeper == nil {
		return reel.Thread{}, errors.New("FetchThread: client or credential keeper is not set")
	}
	cred, err := s.Keeper.Current()
	if err != nil {
		return reel.Thread{}, err
	}
	return s.Client.FetchThread(ctx, cred, threadID)
}
