package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/rsawant/fieldledger/internal/config"
	"github.com/spf13/cobra"
)

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Show configured API key slots and their limits",
		RunE: func(_ *cobra.Command, _ []string) error {
			llmCfg, err := config.LoadLLMConfig()
			if err != nil {
				return err
			}

			limiter := buildLimiter(llmCfg, slog.Default())

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLOT\tAVAILABLE\tHEALTHY\tMINUTE\tHOUR\tDAY")
			for _, s := range limiter.Status() {
				fmt.Fprintf(w, "%s\t%t\t%t\t%d\t%d\t%d\n",
					s.Name, s.Available, s.Healthy, s.MinuteCount, s.HourCount, s.DayCount)
			}
			return w.Flush()
		},
	}
}
