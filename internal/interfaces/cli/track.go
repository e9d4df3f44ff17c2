package cli

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	apptracking "github.com/ipsentinel/ipsentinel/internal/application/tracking"
	"github.com/ipsentinel/ipsentinel/internal/domain/subscription"
	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

var (
	trackUser       string
	trackKind       string
	trackNoStatus   bool
	trackNoEvents   bool
	trackNoRenewals bool

	subTier      string
	subType      string
	subFrequency string
	subEmail     bool
	subDashboard bool
)

func newTrackCommand(deps *runtimeDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Manage the assets a user monitors",
	}
	cmd.PersistentFlags().StringVarP(&trackUser, "user", "u", "", "User id (required)")
	_ = cmd.MarkPersistentFlagRequired("user")

	addCmd := &cobra.Command{
		Use:   "add <asset-id>",
		Short: "Start monitoring an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrackAdd(cmd, deps, args[0])
		},
	}
	addCmd.Flags().StringVar(&trackKind, "kind", "patent", "Asset kind: patent|trademark")
	addCmd.Flags().BoolVar(&trackNoStatus, "no-status-changes", false, "Do not notify on status transitions")
	addCmd.Flags().BoolVar(&trackNoEvents, "no-lifecycle-events", false, "Do not notify on lifecycle date changes")
	addCmd.Flags().BoolVar(&trackNoRenewals, "no-renewals", false, "Do not notify on upcoming renewals and expirations")

	rmCmd := &cobra.Command{
		Use:   "rm <asset-id>",
		Short: "Stop monitoring an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrackRemove(cmd, deps, args[0])
		},
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List the assets a user monitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrackList(cmd, deps)
		},
	}

	subCmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Create a monitoring subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscribe(cmd, deps)
		},
	}
	subCmd.Flags().StringVar(&subTier, "tier", "BASIC", "Subscription tier: BASIC|PROFESSIONAL|ENTERPRISE")
	subCmd.Flags().StringVar(&subType, "type", "PATENT", "Monitoring type: PATENT|TRADEMARK")
	subCmd.Flags().StringVar(&subFrequency, "frequency", "DAILY", "Alert frequency: REALTIME|DAILY|WEEKLY")
	subCmd.Flags().BoolVar(&subEmail, "email", true, "Deliver alerts by email")
	subCmd.Flags().BoolVar(&subDashboard, "dashboard", true, "Deliver alerts to the dashboard")

	cmd.AddCommand(addCmd, rmCmd, lsCmd, subCmd)
	return cmd
}

func runTrackAdd(cmd *cobra.Command, deps *runtimeDeps, assetID string) error {
	kind := asset.Kind(strings.ToLower(trackKind))
	if !kind.Valid() {
		return errors.Newf(errors.ErrCodeValidation, "invalid kind %q (must be patent|trademark)", trackKind)
	}

	stack, err := openTrackingStack(deps.cfg, deps.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	prefs := apptracking.Preferences{
		TrackStatusChanges:   !trackNoStatus,
		TrackLifecycleEvents: !trackNoEvents,
		TrackRenewalsExpiry:  !trackNoRenewals,
	}
	ta, err := stack.tracking.Track(cmd.Context(), trackUser, assetID, kind, prefs)
	if err != nil {
		return err
	}

	fmt.Printf("Tracking %s (%s) for user %s\n", ta.AssetID, ta.Kind, ta.UserID)
	if ta.Snapshot != nil {
		fmt.Printf("Current status: %s\n", ta.Snapshot.Status)
	}
	fmt.Printf("Poll interval: %s\n", ta.PollInterval)
	return nil
}

func runTrackRemove(cmd *cobra.Command, deps *runtimeDeps, assetID string) error {
	stack, err := openTrackingStack(deps.cfg, deps.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	if err := stack.tracking.Untrack(cmd.Context(), trackUser, assetID); err != nil {
		return err
	}
	fmt.Printf("Stopped tracking %s for user %s\n", assetID, trackUser)
	return nil
}

func runTrackList(cmd *cobra.Command, deps *runtimeDeps) error {
	stack, err := openTrackingStack(deps.cfg, deps.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	assets, err := stack.assets.ListByUser(cmd.Context(), trackUser)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		fmt.Printf("User %s tracks no assets.\n", trackUser)
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Asset", "Kind", "Status", "Expires", "Last Refresh", "Interval"})
	for _, ta := range assets {
		status, expires := "-", "-"
		if ta.Snapshot != nil {
			status = ta.Snapshot.Status
			expires = formatDate(ta.Snapshot.ExpirationDate)
		}
		lastRefresh := "-"
		if !ta.LastComputedAt.IsZero() {
			lastRefresh = ta.LastComputedAt.Format("2006-01-02 15:04")
		}
		table.Append([]string{ta.AssetID, ta.Kind.String(), status, expires, lastRefresh, ta.PollInterval.String()})
	}
	table.Render()
	fmt.Printf("\n%d tracked assets\n", len(assets))
	return nil
}

func runSubscribe(cmd *cobra.Command, deps *runtimeDeps) error {
	tier, err := subscription.ParseTier(subTier)
	if err != nil {
		return err
	}
	monType := subscription.MonitoringType(strings.ToUpper(strings.TrimSpace(subType)))
	if monType != subscription.MonitorPatents && monType != subscription.MonitorTrademarks {
		return errors.Newf(errors.ErrCodeValidation, "invalid type %q (must be PATENT|TRADEMARK)", subType)
	}
	freq := subscription.AlertFrequency(strings.ToUpper(strings.TrimSpace(subFrequency)))
	switch freq {
	case subscription.AlertRealtime, subscription.AlertDaily, subscription.AlertWeekly:
	default:
		return errors.Newf(errors.ErrCodeValidation, "invalid frequency %q (must be REALTIME|DAILY|WEEKLY)", subFrequency)
	}

	stack, err := openTrackingStack(deps.cfg, deps.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	sub, err := stack.subs.Create(cmd.Context(), subscription.CreateRequest{
		UserID:           trackUser,
		MonitoringType:   monType,
		Tier:             tier,
		AlertFrequency:   freq,
		EmailEnabled:     subEmail,
		DashboardEnabled: subDashboard,
	})
	if err != nil {
		return err
	}

	limits, _ := subscription.LimitsFor(sub.Tier)
	fmt.Printf("Subscription %s created: %s %s for user %s\n", sub.ID, sub.Tier, sub.MonitoringType, sub.UserID)
	fmt.Printf("Limits: %d tracked assets, refresh every %s\n", limits.MaxTrackedAssets, limits.PollInterval)
	return nil
}
