package chat

import (
	"errors"

	"github.com/rs/zerolog/log"

	"chitchat/models"
	"chitchat/store"
)

// SendFriendRequest creates a pending edge on the initiator's side and
// mirrors it onto the target. The mirror and the visibility exclusion are
// best-effort: if the target does not resolve the initiator-side edge
// still persists as a half-edge.
func (s *Service) SendFriendRequest(initiator, target string) error {
	exists, err := s.accounts.UserExists(initiator)
	if err != nil {
		return storage("find initiator", err)
	}
	if !exists {
		return ErrNotFound
	}

	_, err = s.friends.GetEdge(initiator, target)
	if err == nil {
		// An edge in any state blocks a second request.
		return ErrAlreadyRequested
	}
	if !errors.Is(err, store.ErrNoRows) {
		return storage("get edge", err)
	}

	err = s.friends.InsertEdge(models.FriendEdge{
		Owner:       initiator,
		Counterpart: target,
		Requester:   initiator,
		Status:      models.StatusPending,
	})
	if err != nil {
		return storage("insert edge", err)
	}

	targetExists, err := s.accounts.UserExists(target)
	if err != nil || !targetExists {
		if err != nil {
			log.Warn().Err(err).Str("target", target).Msg("mirror edge skipped")
		}
		return nil
	}

	if err := s.friends.InsertEdge(models.FriendEdge{
		Owner:       target,
		Counterpart: initiator,
		Requester:   initiator,
		Status:      models.StatusPending,
	}); err != nil {
		log.Warn().Err(err).Str("target", target).Msg("mirror edge failed")
	}

	// Hide the requester from the target's directory until resolved.
	if err := s.friends.HideUser(target, initiator); err != nil {
		log.Warn().Err(err).Str("target", target).Msg("hide requester failed")
	}

	return nil
}

// RespondToRequest resolves the responder's pending edge to counterpart
// and best-effort mirrors the same status back. The visibility exclusion
// created by the request is cleared on both outcomes so resolved contacts
// reappear in the directory.
func (s *Service) RespondToRequest(responder, counterpart, status string) error {
	if status != models.StatusAccepted && status != models.StatusRejected {
		return ErrInvalidPayload
	}

	edge, err := s.friends.GetEdge(responder, counterpart)
	if errors.Is(err, store.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return storage("get edge", err)
	}
	if edge.Requester == responder {
		// The initiator cannot resolve their own request.
		return ErrNotFound
	}

	if err := s.friends.UpdateEdgeStatus(responder, counterpart, status); err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return ErrNotFound
		}
		return storage("update edge", err)
	}

	if err := s.friends.UpdateEdgeStatus(counterpart, responder, status); err != nil && !errors.Is(err, store.ErrNoRows) {
		log.Warn().Err(err).Str("counterpart", counterpart).Msg("mirror status failed")
	}

	if err := s.friends.UnhideUser(responder, counterpart); err != nil {
		log.Warn().Err(err).Msg("clear exclusion failed")
	}
	if err := s.friends.UnhideUser(counterpart, responder); err != nil {
		log.Warn().Err(err).Msg("clear exclusion failed")
	}

	return nil
}

// ListPending returns the caller's unresolved edges joined with the
// counterpart's display attributes.
func (s *Service) ListPending(userID string) ([]models.FriendInfo, error) {
	return s.listByStatus(userID, models.StatusPending, true)
}

// ListAccepted returns the caller's accepted friends joined with the
// counterpart's display attributes.
func (s *Service) ListAccepted(userID string) ([]models.FriendInfo, error) {
	return s.listByStatus(userID, models.StatusAccepted, false)
}

func (s *Service) listByStatus(userID, status string, includeStatus bool) ([]models.FriendInfo, error) {
	edges, err := s.friends.GetEdges(userID)
	if err != nil {
		return nil, storage("get edges", err)
	}

	infos := make([]models.FriendInfo, 0, len(edges))
	for _, edge := range edges {
		if edge.Status != status {
			continue
		}

		user, err := s.accounts.FindUserByID(edge.Counterpart)
		if errors.Is(err, store.ErrNoRows) {
			// Half-edge to an identity that no longer resolves.
			continue
		}
		if err != nil {
			return nil, storage("find counterpart", err)
		}

		info := models.FriendInfo{
			FriendID:   user.ID,
			FriendName: user.Name,
			ProfilePic: user.ProfilePic,
		}
		if includeStatus {
			info.Status = edge.Status
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// AcceptedFriendIDs returns just the ids of userID's accepted friends.
// Presence and typing broadcasts are scoped to this set.
func (s *Service) AcceptedFriendIDs(userID string) ([]string, error) {
	edges, err := s.friends.GetEdges(userID)
	if err != nil {
		return nil, storage("get edges", err)
	}

	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		if edge.Status == models.StatusAccepted {
			ids = append(ids, edge.Counterpart)
		}
	}
	return ids, nil
}
