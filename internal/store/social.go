package store

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/runrun/internal/model"
)

// UpsertGoal creates or replaces a goal for its user and period.
func (s *Store) UpsertGoal(ctx context.Context, g model.Goal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, type, year, month, target_m) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, type, year, month) DO UPDATE SET target_m = excluded.target_m`,
		g.UserID, string(g.Type), g.Year, int(g.Month), g.TargetDistance)
	if err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

// ListGoals returns a user's goals, optionally limited to one year (0 for all).
func (s *Store) ListGoals(ctx context.Context, userID string, year int) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, type, year, month, target_m FROM goals
		 WHERE user_id = ? AND (? = 0 OR year = ?)
		 ORDER BY year ASC, month ASC, type ASC`, userID, year, year)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var goals []model.Goal
	for rows.Next() {
		var g model.Goal
		var goalType string
		var month int
		if err := rows.Scan(&g.UserID, &goalType, &g.Year, &month, &g.TargetDistance); err != nil {
			return nil, err
		}
		g.Type = model.GoalType(goalType)
		g.Month = time.Month(month)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return goals, nil
}

// UpsertProfile creates a profile or renames an existing one.
func (s *Store) UpsertProfile(ctx context.Context, p model.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		p.ID, p.Name, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	var p model.Profile
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return model.Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return model.Profile{}, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// AddFriend records a pending request from userID to friendID. Requesting an existing
// edge again leaves it unchanged.
func (s *Store) AddFriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return fmt.Errorf("cannot befriend yourself")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friendships (user_id, friend_id, status, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, friend_id) DO NOTHING`,
		userID, friendID, string(model.FriendPending), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

// AcceptFriend accepts the pending request from requesterID to userID and stores the
// reverse edge, both accepted.
func (s *Store) AcceptFriend(ctx context.Context, userID, requesterID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE friendships SET status = ? WHERE user_id = ? AND friend_id = ? AND status = ?`,
		string(model.FriendAccepted), requesterID, userID, string(model.FriendPending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("friend request from %s: %w", requesterID, ErrNotFound)
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO friendships (user_id, friend_id, status, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, friend_id) DO UPDATE SET status = excluded.status`,
		userID, requesterID, string(model.FriendAccepted), formatTime(time.Now()))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ListFriends returns the user's outgoing edges and incoming pending requests.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]model.Friendship, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, friend_id, status, created_at FROM friendships
		 WHERE user_id = ? OR (friend_id = ? AND status = ?)
		 ORDER BY created_at ASC, user_id ASC, friend_id ASC`,
		userID, userID, string(model.FriendPending))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []model.Friendship
	for rows.Next() {
		var f model.Friendship
		var status, createdAt string
		if err := rows.Scan(&f.UserID, &f.FriendID, &status, &createdAt); err != nil {
			return nil, err
		}
		f.Status = model.FriendStatus(status)
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AcceptedFriends returns the IDs of the user's accepted friends.
func (s *Store) AcceptedFriends(ctx context.Context, userID string) ([]string, error) {
	edges, err := s.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range edges {
		if e.UserID == userID && e.Status == model.FriendAccepted {
			ids = append(ids, e.FriendID)
		}
	}
	return ids, nil
}
