// clinic-console is a terminal front-end for the clinic records API:
// role-gated access to patient records, visit encounters, dashboard
// aggregates, and user administration.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/campusclinic/console/pkg/auth"
	"github.com/campusclinic/console/pkg/authz"
	"github.com/campusclinic/console/pkg/client"
	"github.com/campusclinic/console/pkg/common/config"
	"github.com/campusclinic/console/pkg/common/logger"
	"github.com/campusclinic/console/pkg/common/models"
	"github.com/campusclinic/console/pkg/query"
	"github.com/campusclinic/console/pkg/records"
)

const usage = `usage: clinic-console <command> [args]

commands:
  login -u <username> -p <password>
  logout
  whoami
  dashboard
  patients list [-search s] [-status s] [-gender g] [-letter L]
  patients show <id>
  patients add -file <patient.json>
  patients rm <id>
  patients import <file.csv>
  patients export
  visits list
  visits show -type MEDICAL|DENTAL <id>
  visits rm -type MEDICAL|DENTAL <id>
  users list
  users add -u <username> -p <password> -role <role>
  users rm <id>
  audit <entity> <id>
`

type app struct {
	sessions *auth.Manager
	api      *client.Client
	svc      *records.Service
	cfg      *config.Config
}

func main() {
	logger.InitCLI()
	cfg := config.Load()

	store := auth.NewTokenStore(cfg.TokenPath)
	sessions := auth.NewManager(store)
	sessions.Init()

	api := client.New(cfg.APIBaseURL, cfg.RequestTimeout, store)
	svc := records.New(api, query.NewCache(), cfg.KPIRefreshInterval, cfg.ListRefreshInterval)

	a := &app{sessions: sessions, api: api, svc: svc, cfg: cfg}
	os.Exit(a.run(os.Args[1:]))
}

func (a *app) run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	ctx := context.Background()
	var err error

	switch args[0] {
	case "login":
		err = a.login(ctx, args[1:])
	case "logout":
		a.sessions.Logout()
		fmt.Println("logged out")
	case "whoami":
		err = a.whoami()
	case "dashboard":
		err = a.guarded(authz.ResourceDashboard, authz.ActionView, func(s models.Session) error {
			return a.dashboard(ctx)
		})
	case "patients":
		err = a.patients(ctx, args[1:])
	case "visits":
		err = a.visits(ctx, args[1:])
	case "users":
		err = a.users(ctx, args[1:])
	case "audit":
		err = a.audit(ctx, args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, client.ErrUnauthenticated) {
			fmt.Fprintln(os.Stderr, "not logged in; run: clinic-console login")
			return 1
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// guarded checks the session and the authorization policy before running the
// command body. The action handlers check again server-side; this denial is
// a UX convenience, not enforcement.
func (a *app) guarded(resource authz.Resource, action authz.Action, fn func(models.Session) error) error {
	state, session := a.sessions.Current()
	if state != auth.StateAuthenticated {
		return client.ErrUnauthenticated
	}
	if !authz.Can(session.Role, resource, action) {
		return fmt.Errorf("access denied: role %s may not %s %s", session.Role, action, resource)
	}
	return fn(session)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("username and password are required")
	}

	token, err := a.api.Login(ctx, *username, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	session, err := a.sessions.Login(token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("logged in as %s (%s)\n", session.Username, session.Role)
	return nil
}

func (a *app) whoami() error {
	state, session := a.sessions.Current()
	if state != auth.StateAuthenticated {
		return client.ErrUnauthenticated
	}
	fmt.Printf("%s (%s)\n", session.Username, session.Role)
	return nil
}

func (a *app) dashboard(ctx context.Context) error {
	kpis, err := a.svc.KPIs(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Today's visits:    %d\n", kpis.TodaysVisits)
	fmt.Printf("Visits this month: %d\n", kpis.VisitsThisMonth)

	diagnoses, err := a.svc.TopDiagnoses(ctx)
	if err != nil {
		return err
	}
	if len(diagnoses) > 0 {
		fmt.Println("\nTop diagnoses:")
		for _, d := range diagnoses {
			fmt.Printf("  %4d  %s\n", d.Count, d.Diagnosis)
		}
	}

	trend, err := a.svc.VisitsTrend(ctx)
	if err != nil {
		return err
	}
	if len(trend) > 0 {
		fmt.Println("\nVisits trend:")
		for _, point := range trend {
			fmt.Printf("  %s  %d\n", point.Date, point.Count)
		}
	}
	return nil
}

func (a *app) patients(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("patients: missing subcommand")
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("patients list", flag.ContinueOnError)
		search := fs.String("search", "", "name or student number")
		status := fs.String("status", "", "status filter")
		gender := fs.String("gender", "", "gender filter")
		letter := fs.String("letter", "", "last name initial")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return a.guarded(authz.ResourcePatients, authz.ActionView, func(models.Session) error {
			list, err := a.svc.PatientsList(ctx)
			if err != nil {
				return err
			}
			filter := records.PatientFilter{Search: *search, Status: *status, Gender: *gender, LastNameInitial: *letter}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTUDENT NO\tGENDER\tSTATUS")
			for _, p := range filter.Apply(list) {
				fmt.Fprintf(tw, "%d\t%s %s\t%s\t%s\t%s\n", p.ID, p.FirstName, p.LastName, p.StudentNumber, p.Gender, p.Status)
			}
			return tw.Flush()
		})
	case "show":
		id, err := idArg(args[1:])
		if err != nil {
			return err
		}
		return a.guarded(authz.ResourcePatients, authz.ActionView, func(models.Session) error {
			p, err := a.svc.Patient(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(p)
		})
	case "add":
		fs := flag.NewFlagSet("patients add", flag.ContinueOnError)
		file := fs.String("file", "", "patient record JSON")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *file == "" {
			return fmt.Errorf("patients add: -file is required")
		}
		return a.guarded(authz.ResourcePatients, authz.ActionCreate, func(models.Session) error {
			content, err := os.ReadFile(*file)
			if err != nil {
				return err
			}
			var p models.Patient
			if err := json.Unmarshal(content, &p); err != nil {
				return fmt.Errorf("parse %s: %w", *file, err)
			}
			if p.FirstName == "" || p.LastName == "" {
				return fmt.Errorf("first and last name are required")
			}
			created, err := a.svc.CreatePatient(ctx, p)
			if err != nil {
				return err
			}
			fmt.Printf("created patient %d\n", created.ID)
			return nil
		})
	case "rm":
		id, err := idArg(args[1:])
		if err != nil {
			return err
		}
		return a.guarded(authz.ResourcePatients, authz.ActionDelete, func(models.Session) error {
			if err := a.svc.DeletePatient(ctx, id); err != nil {
				return err
			}
			fmt.Printf("deleted patient %d\n", id)
			return nil
		})
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("patients import: missing file")
		}
		return a.guarded(authz.ResourcePatients, authz.ActionCreate, func(models.Session) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if err := a.svc.ImportPatients(ctx, args[1], content); err != nil {
				return err
			}
			fmt.Println("patients imported")
			return nil
		})
	case "export":
		return a.guarded(authz.ResourcePatients, authz.ActionView, func(models.Session) error {
			if err := a.svc.ExportPatients(ctx, a.cfg.ExportDir); err != nil {
				return err
			}
			fmt.Println("wrote patients.csv")
			return nil
		})
	default:
		return fmt.Errorf("patients: unknown subcommand %q", args[0])
	}
}

func (a *app) visits(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("visits: missing subcommand")
	}

	switch args[0] {
	case "list":
		return a.guarded(authz.ResourceVisits, authz.ActionView, func(models.Session) error {
			list, err := a.svc.VisitsList(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tPATIENT\tREASON\tDIAGNOSIS")
			for _, v := range list {
				name := ""
				if v.Patient != nil {
					name = v.Patient.FirstName + " " + v.Patient.LastName
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.VisitDate, v.VisitType, name, v.ChiefComplaint, v.Diagnosis)
			}
			return tw.Flush()
		})
	case "show":
		visitType, id, err := visitArgs(args[1:])
		if err != nil {
			return err
		}
		return a.guarded(authz.ResourceVisits, authz.ActionView, func(models.Session) error {
			if visitType == models.VisitTypeMedical {
				v, err := a.svc.MedicalVisit(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(v)
			}
			v, err := a.svc.DentalVisit(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(v)
		})
	case "rm":
		visitType, id, err := visitArgs(args[1:])
		if err != nil {
			return err
		}
		resource := authz.ResourceMedicalVisit
		if visitType == models.VisitTypeDental {
			resource = authz.ResourceDentalVisit
		}
		return a.guarded(resource, authz.ActionDelete, func(models.Session) error {
			if err := a.svc.DeleteVisit(ctx, visitType, id); err != nil {
				return err
			}
			fmt.Printf("deleted %s visit %d\n", visitType, id)
			return nil
		})
	default:
		return fmt.Errorf("visits: unknown subcommand %q", args[0])
	}
}

func (a *app) users(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("users: missing subcommand")
	}

	switch args[0] {
	case "list":
		return a.guarded(authz.ResourceUsers, authz.ActionView, func(models.Session) error {
			list, err := a.svc.UsersList(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tROLE")
			for _, u := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.Role)
			}
			return tw.Flush()
		})
	case "add":
		fs := flag.NewFlagSet("users add", flag.ContinueOnError)
		username := fs.String("u", "", "username")
		password := fs.String("p", "", "password")
		role := fs.String("role", "", "role")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return a.guarded(authz.ResourceUsers, authz.ActionCreate, func(models.Session) error {
			created, err := a.svc.CreateUser(ctx, models.UserAccount{Username: *username, Password: *password, Role: *role})
			if err != nil {
				return err
			}
			fmt.Printf("created user %d\n", created.ID)
			return nil
		})
	case "rm":
		id, err := idArg(args[1:])
		if err != nil {
			return err
		}
		return a.guarded(authz.ResourceUsers, authz.ActionDelete, func(models.Session) error {
			if err := a.svc.DeleteUser(ctx, id); err != nil {
				return err
			}
			fmt.Printf("deleted user %d\n", id)
			return nil
		})
	default:
		return fmt.Errorf("users: unknown subcommand %q", args[0])
	}
}

func (a *app) audit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("audit: expected <entity> <id>")
	}
	entity := args[0]
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("audit: bad record id %q", args[1])
	}

	return a.guarded(authz.ResourceAudit, authz.ActionView, func(models.Session) error {
		entries, err := a.svc.AuditEntries(ctx, entity, id)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tUSER\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Action, e.Username, e.Details)
		}
		return tw.Flush()
	})
}

func idArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing record id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad record id %q", args[0])
	}
	return id, nil
}

func visitArgs(args []string) (string, int, error) {
	fs := flag.NewFlagSet("visits", flag.ContinueOnError)
	visitType := fs.String("type", "", "MEDICAL or DENTAL")
	if err := fs.Parse(args); err != nil {
		return "", 0, err
	}
	if *visitType != models.VisitTypeMedical && *visitType != models.VisitTypeDental {
		return "", 0, fmt.Errorf("visits: -type must be MEDICAL or DENTAL")
	}
	id, err := idArg(fs.Args())
	if err != nil {
		return "", 0, err
	}
	return *visitType, id, nil
}

func printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
