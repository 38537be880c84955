package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/filevault/pkg/pricing"
)

type recommendOutput struct {
	pricing.Recommendation
	MonthlyCost         string `json:"monthly_cost"`
	StandardMonthlyCost string `json:"standard_monthly_cost"`
	MonthlySavings      string `json:"monthly_savings"`
}

func NewRecommendCommand() *cobra.Command {
	var (
		name  string
		rules string
	)

	cmd := &cobra.Command{
		Use:   "recommend <mime-type> <size-bytes>",
		Short: "Recommend a storage class for a payload",
		Long:  "Print the storage class an upload with the given content type and size would get, with its estimated monthly cost.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || size < 0 {
				return fmt.Errorf("invalid size %q", args[1])
			}

			r := pricing.DefaultRules()
			if rules != "" {
				if r, err = pricing.LoadRules(rules); err != nil {
					return err
				}
			}

			rec := pricing.NewRecommender(r).Recommend(args[0], size, name)
			cost, err := pricing.MonthlyCost(rec.Class, size)
			if err != nil {
				return err
			}
			standard, err := pricing.MonthlyCost(pricing.ClassStandard, size)
			if err != nil {
				return err
			}
			saved, err := pricing.Savings(pricing.ClassStandard, rec.Class, size)
			if err != nil {
				return err
			}

			return printJSON(cmd, recommendOutput{
				Recommendation:      rec,
				MonthlyCost:         pricing.FormatUSD(cost),
				StandardMonthlyCost: pricing.FormatUSD(standard),
				MonthlySavings:      pricing.FormatUSD(saved),
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "File name used by name-based rules")
	cmd.Flags().StringVar(&rules, "rules", "", "YAML rules file (default: built-in rules)")

	return cmd
}
