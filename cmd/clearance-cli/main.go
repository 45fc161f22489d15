package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Victor-armando18/service-clearance/internal/config"
	"github.com/Victor-armando18/service-clearance/internal/domain/engine"
	"github.com/Victor-armando18/service-clearance/internal/domain/model"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/service-clearance/internal/usecase/runengine"
	"github.com/Victor-armando18/service-clearance/pkg/clearance"
	"github.com/Victor-armando18/service-clearance/pkg/shipping"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\n❌ ERRO CRÍTICO: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	v := config.New()
	root := &cobra.Command{
		Use:           "clearance-cli",
		Short:         "Diagnostic tool for duty, shipping, penalty and clearance rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().String("rules-dir", "", "rules directory (overrides rules.dir)")
	_ = v.BindPFlag("rules.dir", root.PersistentFlags().Lookup("rules-dir"))

	root.AddCommand(
		tariffCmd(v),
		shippingCmd(),
		penaltyCmd(),
		guardsCmd(v),
		trackCmd(),
	)
	return root
}

func rulesConfig(v *viper.Viper) (string, string, string) {
	return v.GetString("rules.dir"), v.GetString("rules.table"), v.GetString("rules.guards_version")
}

func tariffCmd(v *viper.Viper) *cobra.Command {
	var (
		country, hs, table string
		value, weight      float64
	)
	cmd := &cobra.Command{
		Use:   "tariff",
		Short: "Match a duty rule and compute duty and GST",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, defTable, _ := rulesConfig(v)
			if table == "" {
				table = defTable
			}
			rules, err := infrastructure.NewFileRuleLoader(dir).LoadRuleTable(cmd.Context(), table)
			if err != nil {
				return err
			}
			ch := tariff.NewCalculator(rules).ComputeCharges(country, hs, value, weight)

			w := cmd.OutOrStdout()
			banner(w, "TARIFF QUOTE")
			fmt.Fprintf(w, "   Regras:      %d (%s)\n", rules.Len(), table)
			if ch.Rule == nil {
				fmt.Fprintf(w, "   ⚠️  Nenhuma regra para %s / %s\n", strings.ToUpper(country), tariff.Digits(hs))
			} else {
				fmt.Fprintf(w, "   Regra:       %s / %s / %s (hs %v)\n", ch.Rule.Country, ch.Rule.Category, ch.Rule.Subcategory, ch.Rule.HSPrefixes)
				fmt.Fprintf(w, "   Expressões:  duty=%q gst=%q\n", ch.Rule.Duty, ch.Rule.Gst)
			}
			fmt.Fprintf(w, "   Duty %%:      %.2f\n", ch.DutyPercent)
			fmt.Fprintf(w, "   GST %%:       %.2f\n", ch.GstPercent)
			fmt.Fprintf(w, "   Duty:        %.2f\n", ch.Duty)
			fmt.Fprintf(w, "   GST:         %.2f\n", ch.Gst)
			fmt.Fprintf(w, "   Total:       %.2f\n", ch.TotalPayable)
			rule(w)
			return nil
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "destination country")
	cmd.Flags().StringVar(&hs, "hs", "", "HS code")
	cmd.Flags().StringVar(&table, "table", "", "rule table file (overrides rules.table)")
	cmd.Flags().Float64Var(&value, "value", 0, "declared value")
	cmd.Flags().Float64Var(&weight, "weight", 0, "weight in kg")
	_ = cmd.MarkFlagRequired("country")
	_ = cmd.MarkFlagRequired("hs")
	return cmd
}

func shippingCmd() *cobra.Command {
	var in shipping.Input
	cmd := &cobra.Command{
		Use:   "shipping",
		Short: "Compute the shipping cost for a parcel",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := shipping.NewCalculator().Quote(in)
			w := cmd.OutOrStdout()
			banner(w, "SHIPPING QUOTE")
			fmt.Fprintf(w, "   Tarifa:       base %.0f + %.0f/kg\n", q.Rate.Base, q.Rate.PerKg)
			fmt.Fprintf(w, "   Peso real:    %.2f kg\n", q.ActualWeight)
			fmt.Fprintf(w, "   Volumétrico:  %.2f kg\n", q.VolumetricWeight)
			fmt.Fprintf(w, "   Cobrável:     %.0f kg\n", q.ChargeableWeight)
			fmt.Fprintf(w, "   Custo:        %.2f\n", q.Cost)
			rule(w)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Country, "country", "", "destination country")
	cmd.Flags().IntVar(&in.Quantity, "qty", 1, "number of packages")
	cmd.Flags().Float64Var(&in.WeightKg, "weight", 0, "weight per package in kg")
	cmd.Flags().Float64Var(&in.Length, "length", 0, "length")
	cmd.Flags().Float64Var(&in.Width, "width", 0, "width")
	cmd.Flags().Float64Var(&in.Height, "height", 0, "height")
	cmd.Flags().StringVar(&in.Unit, "unit", "cm", "dimension unit (mm, cm, m, in, ft)")
	return cmd
}

func penaltyCmd() *cobra.Command {
	var (
		milestone string
		base      float64
	)
	cmd := &cobra.Command{
		Use:   "penalty",
		Short: "Compute the late fine since a milestone timestamp",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tariff.LatePenalty(milestone, time.Now(), base)
			w := cmd.OutOrStdout()
			banner(w, "LATE PENALTY")
			fmt.Fprintf(w, "   Marco:       %s\n", milestone)
			fmt.Fprintf(w, "   Dias:        %d\n", p.DaysPassed)
			fmt.Fprintf(w, "   Multa:       %.2f\n", p.Fine)
			fmt.Fprintf(w, "   Cancelado:   %v\n", p.Cancelled)
			rule(w)
			return nil
		},
	}
	cmd.Flags().StringVar(&milestone, "milestone", "", `milestone timestamp, e.g. "2024-05-02 02:07 PM"`)
	cmd.Flags().Float64Var(&base, "base", 0, "amount the daily rate applies to")
	_ = cmd.MarkFlagRequired("milestone")
	return cmd
}

func guardsCmd(v *viper.Viper) *cobra.Command {
	var file, version string
	cmd := &cobra.Command{
		Use:   "guards",
		Short: "Run the intake guards against a shipment JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _, defVersion := rulesConfig(v)
			if version == "" {
				version = defVersion
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var in model.Intake
			if err := json.Unmarshal(raw, &in); err != nil {
				return fmt.Errorf("intake %s: %w", file, err)
			}
			def, err := infrastructure.NewFileRuleLoader(dir).Load(cmd.Context(), version)
			if err != nil {
				return err
			}
			uc := &runengine.UseCase{GuardExecutor: jsonlogic.NewGuardExecutor()}
			res, err := uc.Run(cmd.Context(), in, def)
			if err != nil {
				return err
			}
			displayGuardSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "shipment intake JSON")
	cmd.Flags().StringVar(&version, "version", "", "guard pack version (overrides rules.guards_version)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func trackCmd() *cobra.Command {
	var (
		mode   string
		events []string
	)
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Replay clearance events and print both parties' logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			s := clearance.NewState("CLI-0001", "CLI", clearance.DutyMode(strings.ToUpper(mode)), now)
			w := cmd.OutOrStdout()
			banner(w, "CLEARANCE TRACK")
			for _, ev := range events {
				next, err := clearance.Apply(s, clearance.Event(strings.TrimSpace(ev)), clearance.Input{Agent: "CLI"}, now)
				if err != nil {
					fmt.Fprintf(w, "   ⚠️  %-28s rejeitado em %q\n", ev, s.Stage())
					continue
				}
				s = next
				fmt.Fprintf(w, "   ✅ %-28s -> %s\n", ev, s.Status)
			}
			printTrack(w, "SENDER", s.SenderLog)
			printTrack(w, "RECEIVER", s.ReceiverLog)
			rule(w)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "DDP", "duty mode (DDP or DAP)")
	cmd.Flags().StringSliceVar(&events, "events", nil, "comma separated events, e.g. hs.approved,documents.approved")
	return cmd
}

func displayGuardSummary(w io.Writer, res engine.Result) {
	banner(w, "INTAKE GUARDS")
	fmt.Fprintln(w, "\n[1. GUARDS / BLOQUEIOS]")
	if !res.Blocked() {
		fmt.Fprintln(w, "   ✅ Nenhuma violação detectada.")
	}
	for _, v := range res.Violations {
		fmt.Fprintf(w, "   ⚠️  BLOQUEIO: [%s] Motivo: %s\n", v.RuleID, v.Message)
	}

	fmt.Fprintln(w, "\n[2. REGRAS IGNORADAS]")
	if len(res.Reasons) == 0 {
		fmt.Fprintln(w, "   Nenhuma.")
	}
	for _, r := range res.Reasons {
		fmt.Fprintf(w, "   [%-8s] Rule: %-24s -> %s\n", strings.ToUpper(string(r.Phase)), r.RuleID, r.Why)
	}

	fmt.Fprintln(w, "\n[3. RESUMO]")
	fmt.Fprintf(w, "   Status:      %s\n", map[bool]string{true: "BLOQUEADO", false: "APROVADO"}[res.Blocked()])
	fmt.Fprintf(w, "   Versão Rule: %s\n", res.RulesVersion)
	rule(w)
}

func printTrack(w io.Writer, party string, t clearance.Track) {
	fmt.Fprintf(w, "\n[%s]\n", party)
	for _, e := range t {
		action := ""
		if e.Actionable {
			action = fmt.Sprintf("  [%s -> %s]", e.ActionLabel, e.ActionTarget)
		}
		fmt.Fprintf(w, "   %-8s %-30s %s %s%s\n", e.Icon, e.Title, e.Date, e.Time, action)
	}
}

func banner(w io.Writer, title string) {
	rule(w)
	fmt.Fprintf(w, "   %s\n", title)
	rule(w)
}

func rule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
