package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fieldline/internal/app"
	"fieldline/internal/config"
	"fieldline/internal/db"
	"fieldline/internal/domain"
	"fieldline/internal/draft"
	"fieldline/internal/events"
	"fieldline/internal/prefill"
	"fieldline/internal/prompt"
	"fieldline/internal/queue"
	"fieldline/internal/reconcile"
	"fieldline/internal/repo"
	"fieldline/internal/server"
	"fieldline/internal/submit"
)

var rootCmd = &cobra.Command{
	Use:   "fl",
	Short: "Fieldline CLI",
	Long: `Fieldline is the PCO field companion for service reports.
It walks one report draft through the wizard steps (setup, stations,
fumigation, summary, signature, submit) and survives losing connectivity:
a submission that cannot reach the network lands in a durable local queue
and is delivered automatically once the device is back online.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FIELDLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "answer yes to all confirmations")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("yes", rootCmd.PersistentFlags().Lookup("yes"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(queueCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- config ---

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage fieldline.yml"}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var pcoID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default fieldline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(pcoID)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&pcoID, "pco", "pco-1", "PCO identifier")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
}

// --- report wizard ---

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Work on the current report draft"}
	cmd.AddCommand(reportStartCmd())
	cmd.AddCommand(reportResumeCmd())
	cmd.AddCommand(reportStatusCmd())
	cmd.AddCommand(stationCmd())
	cmd.AddCommand(monitorCmd())
	cmd.AddCommand(fumigationCmd())
	cmd.AddCommand(reportAdvanceCmd())
	cmd.AddCommand(reportRemarksCmd())
	cmd.AddCommand(reportSignCmd())
	cmd.AddCommand(reportSubmitCmd())
	cmd.AddCommand(reportDiscardCmd())
	return cmd
}

func reportStartCmd() *cobra.Command {
	var clientID, editReportID int64
	var reportType, serviceDate, nextServiceDate string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new report draft (overwrites any existing draft)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.RequireConfig(); err != nil {
					return err
				}
				if serviceDate == "" {
					serviceDate = time.Now().Format("2006-01-02")
				}
				clientWire, err := a.API.GetClient(ctx, clientID)
				if err != nil {
					return fmt.Errorf("fetch client %d: %w", clientID, err)
				}
				client := clientWire.Domain()
				var d domain.ReportDraft
				if editReportID > 0 {
					d = draft.NewEdit(client, reportType, serviceDate, editReportID)
				} else {
					d = draft.New(client, reportType, serviceDate)
					// Opportunistic pre-fill snapshot; offline or absent
					// history is fine.
					if prev, err := a.API.PreviousReport(ctx, clientID); err == nil {
						d.Previous = prefill.FromWire(prev.BaitStations, prev.InsectMonitors)
					}
				}
				d.NextServiceDate = nextServiceDate
				d.Step = domain.NextStep(domain.StepSetup, d.ReportType)
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				_ = a.Events.Record(ctx, events.TypeReportStarted, "report", "", pcoID(a), events.EventPayload{
					"client_id": clientID, "report_type": reportType, "edit": editReportID > 0,
				})
				fmt.Printf("Draft started for %s (%s). Next: %s\n", client.Name, reportType, d.Step)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&clientID, "client", 0, "client id")
	cmd.Flags().StringVar(&reportType, "type", domain.ReportTypeBait, "report type (bait, fumigation, both)")
	cmd.Flags().StringVar(&serviceDate, "service-date", "", "service date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&nextServiceDate, "next-service-date", "", "next service date")
	cmd.Flags().Int64Var(&editReportID, "edit", 0, "resubmit an existing report by id")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}

func reportResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Pick up the saved draft where it left off",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Resuming %s report for %s, saved %s.\n", d.ReportType, d.Client.Name, d.LastSaved)
				switch d.Step {
				case domain.StepStations:
					fmt.Println("Next: record bait stations with `fl report station add`, then `fl report advance`.")
				case domain.StepFumigation:
					fmt.Println("Next: `fl report fumigation set` and `fl report monitor add`, then `fl report advance`.")
				case domain.StepSummary:
					fmt.Println("Next: review with `fl report status`, then `fl report advance`.")
				case domain.StepSignature:
					fmt.Println("Next: `fl report sign`.")
				case domain.StepSubmit:
					fmt.Println("Next: `fl report submit`.")
				default:
					fmt.Println("Next: `fl report advance`.")
				}
				return nil
			})
		},
	}
}

func reportStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(d)
				}
				fmt.Printf("Client:  %s (#%d)\n", d.Client.Name, d.ClientID)
				fmt.Printf("Type:    %s    Step: %s    Service date: %s\n", d.ReportType, d.Step, d.ServiceDate)
				if d.EditMode {
					fmt.Printf("Editing report #%d\n", d.ReportID)
				}
				printStationTable(d.BaitStations)
				if d.Fumigation != nil {
					fmt.Printf("Fumigation: areas=%s pests=%s chemicals=%d\n",
						strings.Join(d.Fumigation.Areas, ","), strings.Join(d.Fumigation.Pests, ","), len(d.Fumigation.Chemicals))
					printMonitorTable(d.Fumigation.Monitors)
				}
				actual := reconcile.Actual(d)
				fmt.Printf("Counts: inside %d/%d, outside %d/%d, light %d/%d, box %d/%d\n",
					actual.Inside, d.Client.ExpectedInsideStations,
					actual.Outside, d.Client.ExpectedOutsideStations,
					actual.Light, d.Client.ExpectedLightMonitors,
					actual.Box, d.Client.ExpectedBoxMonitors)
				return nil
			})
		},
	}
}

func stationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "station", Short: "Bait station entries"}
	cmd.AddCommand(stationAddCmd())
	cmd.AddCommand(stationEditCmd())
	return cmd
}

func stationAddCmd() *cobra.Command {
	var (
		location, accessReason, baitStatus, condition, action, warningSign, remarks, activityOther string
		number                                                                                     int
		inaccessible                                                                               bool
		activity                                                                                   []string
		chemicals                                                                                  []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an inspected bait station",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				if d.ReportType == domain.ReportTypeFumigation {
					return fmt.Errorf("fumigation-only reports have no bait stations")
				}
				chems, err := parseChemicals(chemicals)
				if err != nil {
					return err
				}
				entry := domain.StationEntry{
					ID:                   uuid.NewString(),
					Location:             location,
					StationNumber:        number,
					Accessible:           !inaccessible,
					AccessReason:         accessReason,
					ActivityDetected:     len(activity) > 0,
					ActivityTypes:        activity,
					ActivityOther:        activityOther,
					BaitStatus:           baitStatus,
					StationCondition:     condition,
					ActionTaken:          action,
					WarningSignCondition: warningSign,
					ChemicalsUsed:        chems,
					Remarks:              remarks,
				}
				rec := prefill.Reconciler{Previous: d.Previous, Prompt: prompter()}
				entry, err = rec.Station(ctx, entry)
				if err != nil {
					return err
				}
				if err := draft.AddStation(&d, entry); err != nil {
					return err
				}
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				_ = a.Events.Record(ctx, events.TypeStationAdded, "station", entry.ID, pcoID(a), events.EventPayload{
					"location": entry.Location, "number": entry.StationNumber, "prefilled": entry.Prefilled,
				})
				if entry.Prefilled {
					fmt.Printf("Station %s %d saved (pre-filled from previous report, chemicals cleared).\n", entry.Location, entry.StationNumber)
				} else {
					fmt.Printf("Station %s %d saved.\n", entry.Location, entry.StationNumber)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&location, "location", domain.LocationInside, "inside or outside")
	cmd.Flags().IntVar(&number, "number", 0, "station number")
	cmd.Flags().BoolVar(&inaccessible, "inaccessible", false, "station could not be accessed")
	cmd.Flags().StringVar(&accessReason, "access-reason", "", "reason the station was inaccessible")
	cmd.Flags().StringSliceVar(&activity, "activity", nil, "activity types (droppings, gnawing, tracks, other)")
	cmd.Flags().StringVar(&activityOther, "activity-other", "", "description for activity type other")
	cmd.Flags().StringVar(&baitStatus, "bait-status", "clean", "bait status (clean, eaten, partially_eaten, moldy, wet)")
	cmd.Flags().StringVar(&condition, "condition", "good", "station condition (good, needs_repair, damaged, missing)")
	cmd.Flags().StringVar(&action, "action", "", "action taken")
	cmd.Flags().StringVar(&warningSign, "warning-sign", "", "warning sign condition")
	cmd.Flags().StringArrayVar(&chemicals, "chemical", nil, "chemical as id:name:quantity:batch (repeatable)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "remarks")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func stationEditCmd() *cobra.Command {
	var (
		location, accessReason, baitStatus, condition, action, warningSign, remarks, activityOther string
		number                                                                                     int
		inaccessible                                                                               bool
		activity                                                                                   []string
		chemicals                                                                                  []string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Re-enter a recorded bait station",
		Long:  "Replaces an already recorded station entry in full. Edited entries are never pre-filled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				existing, ok := d.Station(location, number)
				if !ok {
					return fmt.Errorf("station %s %d not recorded", location, number)
				}
				chems, err := parseChemicals(chemicals)
				if err != nil {
					return err
				}
				entry := domain.StationEntry{
					ID:                   existing.ID,
					Location:             location,
					StationNumber:        number,
					Accessible:           !inaccessible,
					AccessReason:         accessReason,
					ActivityDetected:     len(activity) > 0,
					ActivityTypes:        activity,
					ActivityOther:        activityOther,
					BaitStatus:           baitStatus,
					StationCondition:     condition,
					ActionTaken:          action,
					WarningSignCondition: warningSign,
					ChemicalsUsed:        chems,
					Remarks:              remarks,
				}
				if err := draft.ReplaceStation(&d, entry); err != nil {
					return err
				}
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				_ = a.Events.Record(ctx, events.TypeStationUpdated, "station", entry.ID, pcoID(a), events.EventPayload{
					"location": entry.Location, "number": entry.StationNumber,
				})
				fmt.Printf("Station %s %d updated.\n", entry.Location, entry.StationNumber)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&location, "location", domain.LocationInside, "inside or outside")
	cmd.Flags().IntVar(&number, "number", 0, "station number")
	cmd.Flags().BoolVar(&inaccessible, "inaccessible", false, "station could not be accessed")
	cmd.Flags().StringVar(&accessReason, "access-reason", "", "reason the station was inaccessible")
	cmd.Flags().StringSliceVar(&activity, "activity", nil, "activity types (droppings, gnawing, tracks, other)")
	cmd.Flags().StringVar(&activityOther, "activity-other", "", "description for activity type other")
	cmd.Flags().StringVar(&baitStatus, "bait-status", "clean", "bait status (clean, eaten, partially_eaten, moldy, wet)")
	cmd.Flags().StringVar(&condition, "condition", "good", "station condition (good, needs_repair, damaged, missing)")
	cmd.Flags().StringVar(&action, "action", "", "action taken")
	cmd.Flags().StringVar(&warningSign, "warning-sign", "", "warning sign condition")
	cmd.Flags().StringArrayVar(&chemicals, "chemical", nil, "chemical as id:name:quantity:batch (repeatable)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "remarks")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func monitorCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "monitor", Short: "Insect monitor entries"}
	cmd.AddCommand(monitorAddCmd())
	cmd.AddCommand(monitorEditCmd())
	return cmd
}

func monitorAddCmd() *cobra.Command {
	var (
		monitorType, location, condition, conditionOther, action, warningSign string
		lightCondition, lightFaulty, lightFaultyOther, glueBoard, tubes       string
		number                                                                int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an inspected insect monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				if d.ReportType == domain.ReportTypeBait {
					return fmt.Errorf("bait-only reports have no insect monitors")
				}
				entry := domain.MonitorEntry{
					ID:                   uuid.NewString(),
					Type:                 monitorType,
					Location:             location,
					MonitorNumber:        number,
					Condition:            condition,
					ConditionOther:       conditionOther,
					ActionTaken:          action,
					WarningSignCondition: warningSign,
				}
				if monitorType == domain.MonitorTypeLight {
					entry.LightCondition = lightCondition
					entry.LightFaultyType = lightFaulty
					entry.LightFaultyOther = lightFaultyOther
					entry.GlueBoard = glueBoard
					entry.TubesCondition = tubes
				}
				rec := prefill.Reconciler{Previous: d.Previous, Prompt: prompter()}
				entry, err = rec.Monitor(ctx, entry)
				if err != nil {
					return err
				}
				if err := draft.AddMonitor(&d, entry); err != nil {
					return err
				}
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				_ = a.Events.Record(ctx, events.TypeMonitorAdded, "monitor", entry.ID, pcoID(a), events.EventPayload{
					"type": entry.Type, "number": entry.MonitorNumber,
				})
				fmt.Printf("Monitor %s %d saved.\n", entry.Type, entry.MonitorNumber)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&monitorType, "type", domain.MonitorTypeBox, "box or light")
	cmd.Flags().IntVar(&number, "number", 0, "monitor number")
	cmd.Flags().StringVar(&location, "location", "", "where the monitor is placed")
	cmd.Flags().StringVar(&condition, "condition", "good", "condition (good, needs_repair, damaged, missing, other)")
	cmd.Flags().StringVar(&conditionOther, "condition-other", "", "description for condition other")
	cmd.Flags().StringVar(&action, "action", "", "action taken")
	cmd.Flags().StringVar(&warningSign, "warning-sign", "", "warning sign condition")
	cmd.Flags().StringVar(&lightCondition, "light-condition", "", "light traps: working or faulty")
	cmd.Flags().StringVar(&lightFaulty, "light-faulty", "", "light traps: tube, starter, ballast, other")
	cmd.Flags().StringVar(&lightFaultyOther, "light-faulty-other", "", "description for faulty type other")
	cmd.Flags().StringVar(&glueBoard, "glue-board", "", "light traps: good or replaced")
	cmd.Flags().StringVar(&tubes, "tubes", "", "light traps: good or replaced")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func monitorEditCmd() *cobra.Command {
	var (
		monitorType, location, condition, conditionOther, action, warningSign string
		lightCondition, lightFaulty, lightFaultyOther, glueBoard, tubes       string
		number                                                                int
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Re-enter a recorded insect monitor",
		Long:  "Replaces an already recorded monitor entry in full. Edited entries are never pre-filled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				existing, ok := d.Monitor(monitorType, number)
				if !ok {
					return fmt.Errorf("monitor %s %d not recorded", monitorType, number)
				}
				entry := domain.MonitorEntry{
					ID:                   existing.ID,
					Type:                 monitorType,
					Location:             location,
					MonitorNumber:        number,
					Condition:            condition,
					ConditionOther:       conditionOther,
					ActionTaken:          action,
					WarningSignCondition: warningSign,
				}
				if monitorType == domain.MonitorTypeLight {
					entry.LightCondition = lightCondition
					entry.LightFaultyType = lightFaulty
					entry.LightFaultyOther = lightFaultyOther
					entry.GlueBoard = glueBoard
					entry.TubesCondition = tubes
				}
				if err := draft.ReplaceMonitor(&d, entry); err != nil {
					return err
				}
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				_ = a.Events.Record(ctx, events.TypeMonitorUpdated, "monitor", entry.ID, pcoID(a), events.EventPayload{
					"type": entry.Type, "number": entry.MonitorNumber,
				})
				fmt.Printf("Monitor %s %d updated.\n", entry.Type, entry.MonitorNumber)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&monitorType, "type", domain.MonitorTypeBox, "box or light")
	cmd.Flags().IntVar(&number, "number", 0, "monitor number")
	cmd.Flags().StringVar(&location, "location", "", "where the monitor is placed")
	cmd.Flags().StringVar(&condition, "condition", "good", "condition (good, needs_repair, damaged, missing, other)")
	cmd.Flags().StringVar(&conditionOther, "condition-other", "", "description for condition other")
	cmd.Flags().StringVar(&action, "action", "", "action taken")
	cmd.Flags().StringVar(&warningSign, "warning-sign", "", "warning sign condition")
	cmd.Flags().StringVar(&lightCondition, "light-condition", "", "light traps: working or faulty")
	cmd.Flags().StringVar(&lightFaulty, "light-faulty", "", "light traps: tube, starter, ballast, other")
	cmd.Flags().StringVar(&lightFaultyOther, "light-faulty-other", "", "description for faulty type other")
	cmd.Flags().StringVar(&glueBoard, "glue-board", "", "light traps: good or replaced")
	cmd.Flags().StringVar(&tubes, "tubes", "", "light traps: good or replaced")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func fumigationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "fumigation", Short: "Fumigation details"}
	cmd.AddCommand(fumigationSetCmd())
	return cmd
}

func fumigationSetCmd() *cobra.Command {
	var (
		areas, pests         []string
		areaOther, pestOther string
		chemicals            []string
		remarks              string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set treated areas, target pests, and chemicals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				if d.ReportType == domain.ReportTypeBait {
					return fmt.Errorf("bait-only reports have no fumigation")
				}
				chems, err := parseChemicals(chemicals)
				if err != nil {
					return err
				}
				entry := domain.FumigationEntry{
					Areas:     areas,
					AreaOther: areaOther,
					Pests:     pests,
					PestOther: pestOther,
					Chemicals: chems,
					Remarks:   remarks,
				}
				if d.Fumigation != nil {
					entry.Monitors = d.Fumigation.Monitors
				}
				if err := draft.SetFumigation(&d, entry); err != nil {
					return err
				}
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				fmt.Println("Fumigation details saved.")
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&areas, "areas", nil, "treated areas")
	cmd.Flags().StringVar(&areaOther, "area-other", "", "description for area Other")
	cmd.Flags().StringSliceVar(&pests, "pests", nil, "target pests")
	cmd.Flags().StringVar(&pestOther, "pest-other", "", "description for pest Other")
	cmd.Flags().StringArrayVar(&chemicals, "chemical", nil, "chemical as id:name:quantity:batch (repeatable)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "fumigation remarks")
	return cmd
}

func reportAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "Move to the next wizard step (runs the count check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				switch d.Step {
				case domain.StepStations, domain.StepFumigation:
					if err := a.RequireConfig(); err != nil {
						return err
					}
					eng := reconcile.Engine{Counts: a.API, Prompt: prompter(), Log: a.Log}
					outcome, err := eng.Advance(ctx, &d)
					if err != nil {
						return err
					}
					if outcome.UpdatedExpected {
						_ = a.Events.Record(ctx, events.TypeCountsUpdated, "client", strconv.FormatInt(d.ClientID, 10), pcoID(a), nil)
					}
					if !outcome.Advanced {
						if err := a.Drafts.Save(ctx, d); err != nil {
							return err
						}
						return fmt.Errorf("not advanced: missing equipment not confirmed")
					}
				default:
					d.Step = domain.NextStep(d.Step, d.ReportType)
				}
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				fmt.Println("Now at step:", d.Step)
				return nil
			})
		},
	}
}

func reportRemarksCmd() *cobra.Command {
	var general string
	cmd := &cobra.Command{
		Use:   "remarks",
		Short: "Set general remarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				d.GeneralRemarks = general
				return a.Drafts.Save(ctx, d)
			})
		},
	}
	cmd.Flags().StringVar(&general, "general", "", "general remarks")
	return cmd
}

func reportSignCmd() *cobra.Command {
	var clientName, clientSig, pcoSig string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Record signatures (use @file to load an image)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				cs, err := readSignature(clientSig)
				if err != nil {
					return err
				}
				ps, err := readSignature(pcoSig)
				if err != nil {
					return err
				}
				if err := draft.Sign(&d, clientName, cs, ps); err != nil {
					return err
				}
				if d.Step == domain.StepSignature {
					d.Step = domain.NextStep(d.Step, d.ReportType)
				}
				if err := a.Drafts.Save(ctx, d); err != nil {
					return err
				}
				fmt.Println("Signatures recorded.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&clientName, "client-name", "", "name of the signing client contact")
	cmd.Flags().StringVar(&clientSig, "client-signature", "", "client signature (literal or @file)")
	cmd.Flags().StringVar(&pcoSig, "pco-signature", "", "PCO signature (literal or @file)")
	return cmd
}

func reportSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Submit the report, queueing it when offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.RequireConfig(); err != nil {
					return err
				}
				d, err := a.Drafts.Load(ctx)
				if err != nil {
					return err
				}
				sub := submit.Submitter{
					Store:    a.Drafts,
					Queue:    a.Queue,
					API:      a.API,
					Events:   a.Events,
					Log:      a.Log,
					Priority: a.Config.Queue.ReportPriority,
					ActorID:  a.Config.PCO.ID,
				}
				result, err := sub.Submit(ctx, d)
				if err != nil {
					var rej *submit.RejectedError
					if errors.As(err, &rej) {
						fmt.Println("Report rejected:", rej.Error())
						for field, msg := range rej.Fields {
							fmt.Printf("  %s: %s\n", field, msg)
						}
						return fmt.Errorf("draft preserved; correct and resubmit")
					}
					return err
				}
				if viper.GetBool("json") {
					return printJSON(result)
				}
				if result.Queued {
					fmt.Println("OFFLINE: report queued for delivery. It will be sent automatically when connectivity returns.")
				} else {
					fmt.Printf("Report submitted (id %d).\n", result.ReportID)
				}
				return nil
			})
		},
	}
}

func reportDiscardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Throw away the current draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				ok, err := prompter().Confirm(ctx, "Discard the current draft? This cannot be undone.")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				return a.Drafts.Clear(ctx)
			})
		},
	}
}

// --- queue ---

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "queue", Short: "Inspect and drain the offline queue"}
	cmd.AddCommand(queueListCmd())
	cmd.AddCommand(queueDrainCmd())
	return cmd
}

func queueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued submissions in delivery order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Queue.List(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"ID", "TYPE", "PRIORITY", "METHOD", "ENDPOINT", "ENQUEUED", "ATTEMPTS", "LAST ERROR"})
				for _, item := range items {
					t.AppendRow(table.Row{item.ID, item.Type, item.Priority, item.Method, item.Endpoint, item.EnqueuedAt, item.Attempts, item.LastError})
				}
				t.Render()
				return nil
			})
		},
	}
}

func queueDrainCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Deliver queued submissions now (or keep retrying with --watch)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.RequireConfig(); err != nil {
					return err
				}
				d := queue.Drainer{
					Queue:    a.Queue,
					Sender:   a.API,
					Events:   a.Events,
					Log:      a.Log,
					Interval: a.Config.DrainInterval(),
				}
				if watch {
					return d.Run(ctx)
				}
				res, err := d.DrainOnce(ctx)
				if err != nil {
					return err
				}
				switch {
				case res.Offline:
					fmt.Println("Still offline; queue untouched.")
				case res.Delivered == 0 && res.Failed == 0:
					fmt.Println("Queue is empty.")
				default:
					fmt.Printf("Delivered %d, failed %d.\n", res.Delivered, res.Failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep draining on an interval")
	return cmd
}

// --- log ---

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Local event log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				rows, err := repo.Repo{DB: a.DB}.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSON(rows)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development sync API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				handler, err := server.New(server.Config{
					Repo:     repo.Repo{DB: a.DB},
					BasePath: basePath,
					Auth:     server.AuthConfig{JWTSecret: os.Getenv("FIELDLINE_JWT_SECRET")},
					Log:      a.Log,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving sync API on http://%s%s\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func prompter() prompt.Prompter {
	if viper.GetBool("yes") {
		return prompt.Auto(true)
	}
	return prompt.NewTerm(os.Stdin, os.Stdout)
}

func pcoID(a *app.App) string {
	if a.Config != nil && a.Config.PCO.ID != "" {
		return a.Config.PCO.ID
	}
	return "pco"
}

// parseChemicals turns id:name:quantity:batch flags into domain values.
func parseChemicals(values []string) ([]domain.ChemicalUse, error) {
	var out []domain.ChemicalUse
	for _, v := range values {
		parts := strings.SplitN(v, ":", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("chemical %q: want id:name:quantity:batch", v)
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chemical %q: bad id: %w", v, err)
		}
		qty, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("chemical %q: bad quantity: %w", v, err)
		}
		if parts[3] == "" {
			return nil, fmt.Errorf("chemical %q: batch number is required", v)
		}
		out = append(out, domain.ChemicalUse{
			ChemicalID:   id,
			ChemicalName: parts[1],
			Quantity:     qty,
			BatchNumber:  parts[3],
		})
	}
	return out, nil
}

// readSignature returns the literal value, or the base64 of a file when
// the value starts with @.
func readSignature(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(v, "@"))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func printStationTable(stations []domain.StationEntry) {
	if len(stations) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"LOCATION", "NO", "ACCESSIBLE", "ACTIVITY", "BAIT", "CONDITION", "CHEMICALS", "PREFILLED"})
	for _, s := range stations {
		t.AppendRow(table.Row{s.Location, s.StationNumber, s.Accessible, strings.Join(s.ActivityTypes, ","), s.BaitStatus, s.StationCondition, len(s.ChemicalsUsed), s.Prefilled})
	}
	t.Render()
}

func printMonitorTable(monitors []domain.MonitorEntry) {
	if len(monitors) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"TYPE", "NO", "LOCATION", "CONDITION", "LIGHT", "GLUE BOARD", "TUBES"})
	for _, m := range monitors {
		t.AppendRow(table.Row{m.Type, m.MonitorNumber, m.Location, m.Condition, m.LightCondition, m.GlueBoard, m.TubesCondition})
	}
	t.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
