package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/app"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/application/usecase"
	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/domain/model"
)

func newOverrideCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Pin records against automated overwrite",
		Long: fmt.Sprintf(`Pin records against automated overwrite. Kinds: %s.
Fields use the snake_case column names, e.g. --set home_score=101 --set status=final.`, kindList()),
	}
	cmd.AddCommand(newOverrideSetCmd(r), newOverrideClearCmd(r), newOverrideCreateCmd(r))
	return cmd
}

func kindList() string {
	names := make([]string, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

// parseFields turns repeated key=value flags into the field map of an override.
func parseFields(pairs []string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", usecase.ErrInvalidArgument, pair)
		}
		fields[strings.TrimSpace(k)] = v
	}
	return fields, nil
}

func newOverrideSetCmd(r *runner) *cobra.Command {
	var (
		pairs  []string
		reason string
	)
	cmd := &cobra.Command{
		Use:   "set <kind> <id>",
		Short: "Write fields and mark the record as a manual override",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			fields, err := parseFields(pairs)
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				res, err := a.Overrides.Set(ctx, model.EntityKind(args[0]), id, fields, reason)
				if err != nil {
					return err
				}
				p := r.printer(cmd)
				if ok, err := p.object(res); ok {
					return err
				}
				p.linef("%s %d pinned (changed: %s)", args[0], id, strings.Join(res.Changed, ", "))
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "set", nil, "Field to write as key=value (repeatable)")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the record is pinned")
	return cmd
}

func newOverrideClearCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <kind> <id>",
		Short: "Release a manual override; values stay until the next sync",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				rec, err := a.Overrides.Clear(ctx, model.EntityKind(args[0]), id)
				if err != nil {
					return err
				}
				p := r.printer(cmd)
				if ok, err := p.object(rec); ok {
					return err
				}
				p.linef("%s %d released", args[0], id)
				return nil
			})
		},
	}
}

func newOverrideCreateCmd(r *runner) *cobra.Command {
	var (
		pairs  []string
		reason string
	)
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create an operator-authored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(pairs)
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				rec, err := a.Overrides.CreateManual(ctx, model.EntityKind(args[0]), fields, reason)
				if err != nil {
					return err
				}
				p := r.printer(cmd)
				if ok, err := p.object(rec); ok {
					return err
				}
				p.linef("created %s", rec.Label())
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "set", nil, "Field to write as key=value (repeatable)")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the record was entered by hand")
	return cmd
}
