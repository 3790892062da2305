package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentscan/tagview/pkg/session"
)

var sessionScope string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the persisted expansion state",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List saved expansion records",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer store.Close()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if sessionScope != "" {
			recs, err := store.List(sessionScope)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Printf("no records for scope %s\n", sessionScope)
				return nil
			}
			fmt.Fprintln(tw, "NODE\tLEVEL\tPAGE\tUPDATED")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.NodeID, r.Level, r.Page, r.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		}

		scopes, err := store.Scopes()
		if err != nil {
			return err
		}
		if len(scopes) == 0 {
			fmt.Println("no saved expansion state")
			return nil
		}
		fmt.Fprintln(tw, "SCOPE\tRECORDS\tUPDATED")
		for _, s := range scopes {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Scope, s.Count, s.UpdatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete saved expansion records",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := openSessionStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if sessionScope != "" {
			if err := store.ClearScope(sessionScope); err != nil {
				return err
			}
			fmt.Printf("cleared scope %s\n", sessionScope)
			return nil
		}
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("cleared all scopes")
		return nil
	},
}

func openSessionStore() (*session.Store, error) {
	path := cfg.SessionPath()
	if path == "" {
		return nil, fmt.Errorf("cannot determine session database path")
	}
	return session.Open(path)
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionScope, "scope", "", `limit to one scope ("tab|store|type")`)
	sessionCmd.AddCommand(sessionShowCmd, sessionClearCmd)
}
