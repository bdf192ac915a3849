package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/stats"
	"github.com/verte-zerg/runrun/internal/store"
)

var (
	goalYear     int
	goalMonth    int
	goalDistance float64
	goalListYear int

	leaderboardYear  int
	leaderboardMonth int
)

// ensureProfile creates the user's profile on first use and applies a configured name.
func ensureProfile(ctx context.Context, st *store.Store, userID string, name *string) error {
	p, err := st.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		p = model.Profile{ID: userID, Name: userID}
	case err != nil:
		return fmt.Errorf("failed to load profile: %w", err)
	case name == nil || strings.TrimSpace(*name) == "" || *name == p.Name:
		return nil
	}
	if name != nil && strings.TrimSpace(*name) != "" {
		p.Name = strings.TrimSpace(*name)
	}
	return st.UpsertProfile(ctx, p)
}

// displayName returns the profile name, falling back to the ID.
func displayName(ctx context.Context, st *store.Store, userID string) string {
	p, err := st.GetProfile(ctx, userID)
	if err != nil || p.Name == "" || p.Name == userID {
		return userID
	}
	return fmt.Sprintf("%s (%s)", p.Name, userID)
}

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage distance goals",
	}
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set a yearly or monthly distance goal",
		Args:  cobra.NoArgs,
		RunE:  runGoalSetCmd,
	}
	setCmd.Flags().IntVar(&goalYear, "year", time.Now().Year(), "goal year")
	setCmd.Flags().IntVar(&goalMonth, "month", 0, "goal month 1-12 (omit for a yearly goal)")
	setCmd.Flags().Float64Var(&goalDistance, "distance", 0, "target distance in km")
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show goals with progress",
		Args:  cobra.NoArgs,
		RunE:  runGoalListCmd,
	}
	listCmd.Flags().IntVar(&goalListYear, "year", 0, "only goals of this year")
	cmd.AddCommand(setCmd, listCmd)
	return cmd
}

func runGoalSetCmd(cmd *cobra.Command, _ []string) error {
	if goalDistance <= 0 {
		return fmt.Errorf("--distance must be > 0")
	}
	if goalMonth < 0 || goalMonth > 12 {
		return fmt.Errorf("--month must be between 1 and 12")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	g := model.Goal{
		UserID:         currentUser(fileCfg),
		Type:           model.GoalYearly,
		Year:           goalYear,
		TargetDistance: goalDistance * 1000,
	}
	if goalMonth > 0 {
		g.Type = model.GoalMonthly
		g.Month = time.Month(goalMonth)
	}
	if err := st.UpsertGoal(context.Background(), g); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Goal %s: %s km\n", g.Key(), stats.FormatKm(g.TargetDistance)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runGoalListCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cal, err := fileCfg.Stats.Calendar()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	userID := currentUser(fileCfg)
	goals, err := st.ListGoals(ctx, userID, goalListYear)
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}
	records, err := st.ListRecords(ctx, model.RecordFilter{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	return stats.RenderGoals(cmd.OutOrStdout(), stats.GoalsProgress(goals, records, cal))
}

func newFriendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Manage friends",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add USER",
			Short: "Send a friend request",
			Args:  cobra.ExactArgs(1),
			RunE:  runFriendsAddCmd,
		},
		&cobra.Command{
			Use:   "accept USER",
			Short: "Accept a pending friend request",
			Args:  cobra.ExactArgs(1),
			RunE:  runFriendsAcceptCmd,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List friends and pending requests",
			Args:  cobra.NoArgs,
			RunE:  runFriendsListCmd,
		},
	)
	return cmd
}

func runFriendsAddCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	userID := currentUser(fileCfg)
	friendID := strings.TrimSpace(args[0])
	if friendID == "" {
		return fmt.Errorf("user must not be empty")
	}
	if err := ensureProfile(ctx, st, userID, fileCfg.Profile.Name); err != nil {
		return err
	}
	if err := ensureProfile(ctx, st, friendID, nil); err != nil {
		return err
	}
	if err := st.AddFriend(ctx, userID, friendID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Friend request sent to %s\n", friendID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runFriendsAcceptCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	userID := currentUser(fileCfg)
	if err := st.AcceptFriend(context.Background(), userID, args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no pending request from %s", args[0])
		}
		return fmt.Errorf("failed to accept friend: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s and %s are now friends\n", userID, args[0]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runFriendsListCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	userID := currentUser(fileCfg)
	edges, err := st.ListFriends(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list friends: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(edges) == 0 {
		_, err := fmt.Fprintln(out, "No friends yet.")
		return err
	}
	for _, e := range edges {
		var line string
		switch {
		case e.UserID != userID:
			line = fmt.Sprintf("%s  wants to be friends (runrun friends accept %s)", displayName(ctx, st, e.UserID), e.UserID)
		case e.Status == model.FriendPending:
			line = fmt.Sprintf("%s  request pending", displayName(ctx, st, e.FriendID))
		default:
			line = displayName(ctx, st, e.FriendID)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank you and your friends by distance",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	now := time.Now()
	cmd.Flags().IntVar(&leaderboardYear, "year", now.Year(), "period year")
	cmd.Flags().IntVar(&leaderboardMonth, "month", int(now.Month()), "period month 1-12, 0 for the whole year")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	if leaderboardMonth < 0 || leaderboardMonth > 12 {
		return fmt.Errorf("--month must be between 0 and 12")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cal, err := fileCfg.Stats.Calendar()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	userID := currentUser(fileCfg)
	friends, err := st.AcceptedFriends(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load friends: %w", err)
	}
	users := append([]string{userID}, friends...)

	key := leaderboardKey(leaderboardYear, leaderboardMonth)
	since, until := key.Start(cal), key.End(cal)
	records, err := st.ListRecords(ctx, model.RecordFilter{Since: &since, Until: &until})
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	standings := stats.Leaderboard(records, users, key, cal)
	for i := range standings {
		standings[i].UserID = displayName(ctx, st, standings[i].UserID)
	}
	return stats.RenderLeaderboard(cmd.OutOrStdout(), key, standings)
}

func leaderboardKey(year, month int) model.PeriodKey {
	if month == 0 {
		return model.PeriodKey{Granularity: model.Yearly, Year: year}
	}
	return model.PeriodKey{Granularity: model.Monthly, Year: year, Month: time.Month(month)}
}
