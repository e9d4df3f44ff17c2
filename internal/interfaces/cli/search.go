package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ipsentinel/ipsentinel/pkg/errors"
	"github.com/ipsentinel/ipsentinel/pkg/types/asset"
)

var (
	searchKind         string
	searchJurisdiction string
	searchAssignee     string
	searchInventor     string
	searchOwner        string
	searchState        string
	searchDateFrom     string
	searchDateTo       string
	searchLimit        int
	searchOutput       string
)

func newSearchCommand(deps *runtimeDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search patents and trademarks across the registered sources",
		Long:  "Fan a keyword or fielded query out to every source serving the jurisdiction and print the merged results.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, deps, args[0])
		},
	}

	cmd.Flags().StringVar(&searchKind, "kind", "patent", "Asset kind: patent|trademark")
	cmd.Flags().StringVar(&searchJurisdiction, "jurisdiction", asset.JurisdictionAll, "Jurisdiction code (e.g. US, EP, DE) or ALL")
	cmd.Flags().StringVar(&searchAssignee, "assignee", "", "Assignee filter (patents)")
	cmd.Flags().StringVar(&searchInventor, "inventor", "", "Inventor filter (patents)")
	cmd.Flags().StringVar(&searchOwner, "owner", "", "Owner filter (trademarks)")
	cmd.Flags().StringVar(&searchState, "state", "", "Register state filter (trademarks)")
	cmd.Flags().StringVar(&searchDateFrom, "date-from", "", "Filing date from (YYYY-MM-DD)")
	cmd.Flags().StringVar(&searchDateTo, "date-to", "", "Filing date to (YYYY-MM-DD)")
	cmd.Flags().IntVar(&searchLimit, "limit", 50, "Maximum results per source (1-500)")
	cmd.Flags().StringVar(&searchOutput, "output", "table", "Output format: table|json")
	return cmd
}

func runSearch(cmd *cobra.Command, deps *runtimeDeps, keyword string) error {
	kind := asset.Kind(strings.ToLower(searchKind))
	if !kind.Valid() {
		return errors.Newf(errors.ErrCodeValidation, "invalid kind %q (must be patent|trademark)", searchKind)
	}
	if searchLimit < 1 || searchLimit > 500 {
		return errors.Newf(errors.ErrCodeValidation, "limit must be between 1 and 500, got %d", searchLimit)
	}

	dateFrom, err := parseDateFlag("date-from", searchDateFrom)
	if err != nil {
		return err
	}
	dateTo, err := parseDateFlag("date-to", searchDateTo)
	if err != nil {
		return err
	}
	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		return errors.InvalidParam("date-from cannot be later than date-to")
	}

	filter := &asset.SearchFilter{
		Keyword:      keyword,
		Jurisdiction: strings.ToUpper(strings.TrimSpace(searchJurisdiction)),
		Kind:         kind,
		DateFrom:     dateFrom,
		DateTo:       dateTo,
		Assignee:     searchAssignee,
		Inventor:     searchInventor,
		Owner:        searchOwner,
		State:        searchState,
		Limit:        searchLimit,
	}

	dispatcher := buildDispatcher(deps.cfg, deps.logger)
	docs, err := dispatcher.Dispatch(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No matching records found.")
		return nil
	}

	out, err := formatDocuments(docs, searchOutput)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func parseDateFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeValidation, "invalid %s %q (must be YYYY-MM-DD)", name, raw)
	}
	return &t, nil
}

func formatDocuments(docs []asset.AssetDocument, format string) (string, error) {
	if format == "json" {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeSerialization, "marshal results")
		}
		return string(data) + "\n", nil
	}

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"ID", "Source", "Kind", "Jurisdiction", "Title", "Filed", "Status"})
	for _, doc := range docs {
		table.Append([]string{
			doc.ID,
			doc.Source,
			doc.Kind.String(),
			doc.Jurisdiction,
			truncate(doc.Title, 50),
			formatDate(doc.FilingDate),
			colorizeStatus(documentStatus(doc)),
		})
	}
	table.Render()
	buf.WriteString(fmt.Sprintf("\nTotal results: %d\n", len(docs)))
	return buf.String(), nil
}

// documentStatus is the display status: the raw register code for trademarks,
// a coarse grant marker for patents.
func documentStatus(doc asset.AssetDocument) string {
	if doc.Withdrawn {
		return "WITHDRAWN"
	}
	if doc.Kind == asset.KindTrademark {
		return doc.StatusCode
	}
	if doc.GrantDate != nil {
		return "GRANTED"
	}
	return "PENDING"
}

func colorizeStatus(status string) string {
	switch status {
	case "GRANTED":
		return color.GreenString(status)
	case "WITHDRAWN":
		return color.RedString(status)
	case "PENDING":
		return color.YellowString(status)
	default:
		return status
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
