package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hireline/internal/app"
	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/repo"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(header)
	return tw
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func jobCmd() *cobra.Command {
	c := &cobra.Command{Use: "job", Short: "Manage jobs"}
	c.AddCommand(jobCreateCmd())
	c.AddCommand(jobListCmd())
	c.AddCommand(jobGetCmd())
	c.AddCommand(jobReplaceCmd())
	c.AddCommand(jobDeleteCmd())
	return c
}

func jobFlags(cmd *cobra.Command, in *engine.JobInput, status *string) {
	cmd.Flags().StringVar(&in.Title, "title", "", "job title")
	cmd.Flags().StringVar(&in.Department, "department", "", "department")
	cmd.Flags().StringVar(&in.HiringManager, "hiring-manager", "", "hiring manager")
	cmd.Flags().StringVar(&in.Location, "location", "", "location")
	cmd.Flags().StringVar(status, "status", "", "Open, Closed or On Hold (default Open)")
}

func jobCreateCmd() *cobra.Command {
	var in engine.JobInput
	var status string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Status = domain.JobStatus(status)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				j, err := a.Engine.CreateJob(ctx, in)
				if err != nil {
					return err
				}
				return printJobs([]domain.Job{j})
			})
		},
	}
	jobFlags(cmd, &in, &status)
	return cmd
}

func jobListCmd() *cobra.Command {
	var status, department string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				jobs, err := a.Engine.ListJobs(ctx, repo.JobFilter{Status: domain.JobStatus(status), Department: department})
				if err != nil {
					return err
				}
				return printJobs(jobs)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&department, "department", "", "department filter")
	return cmd
}

func jobGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				j, err := a.Engine.GetJob(ctx, id)
				if err != nil {
					return err
				}
				return printJobs([]domain.Job{j})
			})
		},
	}
}

func jobReplaceCmd() *cobra.Command {
	var in engine.JobInput
	var status string
	cmd := &cobra.Command{
		Use:   "replace <id>",
		Short: "Replace every writable field of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in.Status = domain.JobStatus(status)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				j, err := a.Engine.ReplaceJob(ctx, id, in)
				if err != nil {
					return err
				}
				return printJobs([]domain.Job{j})
			})
		},
	}
	jobFlags(cmd, &in, &status)
	return cmd
}

func jobDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job (its candidates are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Engine.DeleteJob(ctx, id); err != nil {
					return err
				}
				fmt.Printf("deleted job %d\n", id)
				return nil
			})
		},
	}
}

func printJobs(jobs []domain.Job) error {
	if viper.GetBool("json") {
		return printJSON(jobs)
	}
	tw := newTable(table.Row{"ID", "Title", "Department", "Manager", "Location", "Status", "Opened"})
	for _, j := range jobs {
		tw.AppendRow(table.Row{j.ID, j.Title, j.Department, j.HiringManager, j.Location, j.Status, j.OpenDate.Format("2006-01-02")})
	}
	tw.Render()
	return nil
}

func candidateCmd() *cobra.Command {
	c := &cobra.Command{Use: "candidate", Short: "Manage candidates"}
	c.AddCommand(candidateCreateCmd())
	c.AddCommand(candidateListCmd())
	c.AddCommand(candidateGetCmd())
	c.AddCommand(candidateUpdateCmd())
	c.AddCommand(candidateMessagesCmd())
	return c
}

func candidateCreateCmd() *cobra.Command {
	var in engine.CandidateInput
	var stage, source, notes string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a candidate to a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Stage = domain.Stage(stage)
			in.Source = optionalString(source)
			in.Notes = optionalString(notes)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cand, err := a.Engine.CreateCandidate(ctx, in)
				if err != nil {
					return err
				}
				return printCandidates([]domain.Candidate{cand})
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "candidate name")
	cmd.Flags().StringVar(&in.Email, "email", "", "candidate email")
	cmd.Flags().Int64Var(&in.JobID, "job-id", 0, "job id")
	cmd.Flags().StringVar(&stage, "stage", "", "initial stage (default Applied)")
	cmd.Flags().StringVar(&source, "source", "", "where the candidate came from")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func candidateListCmd() *cobra.Command {
	var stage string
	var jobID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListCandidates(ctx, repo.CandidateFilter{Stage: domain.Stage(stage), JobID: jobID})
				if err != nil {
					return err
				}
				return printCandidates(items)
			})
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "stage filter")
	cmd.Flags().Int64Var(&jobID, "job-id", 0, "job filter")
	return cmd
}

func candidateGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cand, err := a.Engine.GetCandidate(ctx, id)
				if err != nil {
					return err
				}
				return printCandidates([]domain.Candidate{cand})
			})
		},
	}
}

func candidateUpdateCmd() *cobra.Command {
	var name, email, stage, source, notes string
	var jobID int64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a candidate; moving stage may record a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			upd := engine.CandidateUpdate{ID: id}
			flags := cmd.Flags()
			if flags.Changed("name") {
				upd.Name = &name
			}
			if flags.Changed("email") {
				upd.Email = &email
			}
			if flags.Changed("job-id") {
				upd.JobID = &jobID
			}
			if flags.Changed("stage") {
				s := domain.Stage(stage)
				upd.Stage = &s
			}
			if flags.Changed("source") {
				upd.Source = &source
			}
			if flags.Changed("notes") {
				upd.Notes = &notes
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cand, err := a.Engine.UpdateCandidate(ctx, upd)
				if err != nil {
					return err
				}
				return printCandidates([]domain.Candidate{cand})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "candidate name")
	cmd.Flags().StringVar(&email, "email", "", "candidate email")
	cmd.Flags().Int64Var(&jobID, "job-id", 0, "job id")
	cmd.Flags().StringVar(&stage, "stage", "", "new stage")
	cmd.Flags().StringVar(&source, "source", "", "source")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func candidateMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages <id>",
		Short: "List messages recorded for a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				msgs, err := a.Engine.ListCandidateMessages(ctx, id)
				if err != nil {
					return err
				}
				return printMessages(msgs)
			})
		},
	}
}

func printCandidates(items []domain.Candidate) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable(table.Row{"ID", "Name", "Email", "Job", "Stage", "Source", "Updated"})
	for _, c := range items {
		tw.AppendRow(table.Row{c.ID, c.Name, c.Email, c.JobID, c.Stage, deref(c.Source), c.UpdatedDate.Format("2006-01-02 15:04")})
	}
	tw.Render()
	return nil
}

func messageCmd() *cobra.Command {
	c := &cobra.Command{Use: "message", Short: "Inspect recorded messages"}
	var candidateID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				msgs, err := a.Engine.ListMessages(ctx, repo.MessageFilter{CandidateID: candidateID})
				if err != nil {
					return err
				}
				return printMessages(msgs)
			})
		},
	}
	list.Flags().Int64Var(&candidateID, "candidate-id", 0, "candidate filter")
	c.AddCommand(list)
	c.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				m, err := a.Engine.GetMessage(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	})
	return c
}

func printMessages(msgs []domain.Message) error {
	if viper.GetBool("json") {
		return printJSON(msgs)
	}
	tw := newTable(table.Row{"ID", "Candidate", "To", "Subject", "Trigger", "Status", "Sent"})
	for _, m := range msgs {
		tw.AppendRow(table.Row{m.ID, m.CandidateID, m.ToEmail, m.Subject, m.Trigger, m.Status, m.Timestamp.Format("2006-01-02 15:04")})
	}
	tw.Render()
	return nil
}

func boardCmd() *cobra.Command {
	c := &cobra.Command{Use: "board", Short: "Manage job boards and their posts"}

	var slug, logoPath string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a job board",
		RunE: func(cmd *cobra.Command, args []string) error {
			var logo *engine.Logo
			if logoPath != "" {
				name, ct, data, err := readLogoFile(logoPath)
				if err != nil {
					return err
				}
				logo = &engine.Logo{Filename: name, ContentType: ct, Data: data}
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				b, err := a.Engine.CreateJobBoard(ctx, slug, logo)
				if err != nil {
					return err
				}
				return printBoards([]domain.JobBoard{b})
			})
		},
	}
	create.Flags().StringVar(&slug, "slug", "", "board slug (3-20 chars)")
	create.Flags().StringVar(&logoPath, "logo", "", "path to a logo image")
	c.AddCommand(create)

	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List job boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListJobBoards(ctx)
				if err != nil {
					return err
				}
				return printBoards(items)
			})
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "posts <board>",
		Short: "List posts on a board (id or slug)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				posts, err := a.Engine.ListJobPosts(ctx, args[0])
				if err != nil {
					return err
				}
				return printPosts(posts)
			})
		},
	})

	var in engine.JobPostInput
	post := &cobra.Command{
		Use:   "post <board>",
		Short: "Add a post to a board (id or slug)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p, err := a.Engine.CreateJobPost(ctx, args[0], in)
				if err != nil {
					return err
				}
				return printPosts([]domain.JobPost{p})
			})
		},
	}
	post.Flags().StringVar(&in.Title, "title", "", "post title")
	post.Flags().Float64Var(&in.Salary, "salary", 0, "salary")
	c.AddCommand(post)
	return c
}

func printBoards(items []domain.JobBoard) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable(table.Row{"ID", "Slug", "Logo"})
	for _, b := range items {
		tw.AppendRow(table.Row{b.ID, b.Slug, deref(b.LogoURL)})
	}
	tw.Render()
	return nil
}

func printPosts(items []domain.JobPost) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := newTable(table.Row{"ID", "Board", "Title", "Salary"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.ID, p.JobBoardID, p.Title, fmt.Sprintf("%.2f", p.Salary)})
	}
	tw.Render()
	return nil
}

func logCmd() *cobra.Command {
	c := &cobra.Command{Use: "log", Short: "Audit event log"}
	var n int
	var f repo.EventFilter
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				events, err := a.Engine.ListEvents(ctx, f)
				if err != nil {
					return err
				}
				if n > 0 && len(events) > n {
					events = events[len(events)-n:]
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := newTable(table.Row{"ID", "Time", "Type", "Entity", "Payload"})
				for _, e := range events {
					tw.AppendRow(table.Row{e.ID, e.TS.Format("2006-01-02 15:04:05"), e.Type, fmt.Sprintf("%s/%d", e.EntityKind, e.EntityID), e.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&f.Type, "type", "", "event type filter")
	tail.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	tail.Flags().Int64Var(&f.EntityID, "entity-id", 0, "entity id")
	c.AddCommand(tail)
	return c
}
