package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildledger/ledgerroute/internal/cli"
	"github.com/buildledger/ledgerroute/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage routing rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDisableCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List routing rules in evaluation order",
		RunE:  runRulesList,
	}
	cmd.Flags().Bool("all", false, "include inactive rules")
	return cmd
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rules, err := a.db.ListRules(ctx, !all)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	if len(rules) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No routing rules defined."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Routing rules"))
	header := fmt.Sprintf("%-4s %-24s %-13s %-12s %-24s %-9s %s",
		"ID", "NAME", "FIELD", "MATCH", "VALUE", "PRIORITY", "TARGET")
	fmt.Println(cli.TableHeaderStyle.Render(header))

	for _, rule := range rules {
		value := rule.MatchValue
		if len(value) > 24 {
			value = value[:21] + "..."
		}
		line := fmt.Sprintf("%-4d %-24s %-13s %-12s %-24s %-9d %s",
			rule.ID, rule.Name, rule.FieldType, rule.MatchType, value, rule.Priority, rule.TargetProjectID)
		if !rule.IsActive {
			line = cli.SubtleStyle.Render(line + "  (inactive)")
		}
		fmt.Println(line)
	}

	return nil
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a routing rule",
		Long: `Create a routing rule. The match value must parse for the match type:
a regex must compile, and a range must be "min-max" with min <= max.

Examples:
  ledgerroute rules add --name "Kitchen jobs" --field memo --match contains \
      --value "kitchen,cabinet" --target proj-142 --priority 10
  ledgerroute rules add --name "Memo codes" --field memo --match regex \
      --value 'PROJ-(?P<project_code>\d{3})' --target auto-detect --priority 1`,
		RunE: runRulesAdd,
	}

	cmd.Flags().String("name", "", "rule name (required)")
	cmd.Flags().String("description", "", "rule description")
	cmd.Flags().String("field", "", "field to inspect: memo, reference, customer_name, item_name, amount_range, custom_field")
	cmd.Flags().String("match", "", "match type: exact, contains, starts_with, ends_with, regex, range")
	cmd.Flags().String("value", "", "match value")
	cmd.Flags().String("target", "", "target project id, or auto-detect")
	cmd.Flags().Int("priority", 100, "evaluation priority (smaller evaluates first)")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	field, _ := cmd.Flags().GetString("field")
	match, _ := cmd.Flags().GetString("match")
	value, _ := cmd.Flags().GetString("value")
	target, _ := cmd.Flags().GetString("target")
	priority, _ := cmd.Flags().GetInt("priority")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rule := model.RoutingRule{
		Name:            name,
		Description:     description,
		FieldType:       model.FieldType(strings.ToLower(field)),
		MatchType:       model.MatchType(strings.ToLower(match)),
		MatchValue:      value,
		TargetProjectID: target,
		Priority:        priority,
		IsActive:        true,
	}

	if err := a.db.CreateRule(ctx, &rule); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %d (%s)", rule.ID, rule.Name)))
	return nil
}

func rulesDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <rule-id>",
		Short: "Deactivate a routing rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.db.DeactivateRule(ctx, id); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deactivated rule %d", id)))
			return nil
		},
	}
}
