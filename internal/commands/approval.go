package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bursar/internal/approval"
	"github.com/cleared-dev/bursar/internal/id"
	"github.com/cleared-dev/bursar/internal/model"
)

// postingTransition builds approve, reject and reapprove, which act on one posting.
func postingTransition(use, short, done string, apply func(*approval.Service, approval.Actor, string) error) *cobra.Command {
	var who actorFlags
	cmd := &cobra.Command{
		Use:   use + " <posting-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !id.Valid(args[0]) {
				return fmt.Errorf("invalid posting ID %q (see 'bursar show <voucher>')", args[0])
			}
			return withApp(cmd, func(a *app) error {
				if err := apply(a.approvals, who.actor(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, args[0])
				return nil
			})
		},
	}
	who.register(cmd)
	return cmd
}

func newApproveCommand() *cobra.Command {
	return postingTransition("approve", "Approve a pending posting", "Approved", (*approval.Service).Approve)
}

func newRejectCommand() *cobra.Command {
	return postingTransition("reject", "Reject a pending posting", "Rejected", (*approval.Service).Reject)
}

func newReApproveCommand() *cobra.Command {
	return postingTransition("reapprove", "Approve a previously rejected posting", "Re-approved", (*approval.Service).ReApprove)
}

func newRequestDeleteCommand() *cobra.Command {
	var who actorFlags
	cmd := &cobra.Command{
		Use:   "request-delete <voucher>",
		Short: "Flag a posted voucher for deletion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.approvals.RequestDelete(who.actor(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deletion of %s requested\n", args[0])
				return nil
			})
		},
	}
	who.register(cmd)
	return cmd
}

// voucherDeletion builds confirm-delete and delete. Deleting a pending voucher
// rejects it and destroys nothing.
func voucherDeletion(use, short string, apply func(*approval.Service, approval.Actor, string) (int, error)) *cobra.Command {
	var who actorFlags
	cmd := &cobra.Command{
		Use:   use + " <voucher>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				n, err := apply(a.approvals, who.actor(), args[0])
				if err != nil {
					return err
				}
				if n == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s (record kept)\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%d lines)\n", args[0], n)
				return nil
			})
		},
	}
	who.register(cmd)
	return cmd
}

func newConfirmDeleteCommand() *cobra.Command {
	return voucherDeletion("confirm-delete", "Confirm a requested deletion", (*approval.Service).ConfirmDelete)
}

func newDeleteCommand() *cobra.Command {
	return voucherDeletion("delete", "Delete a live voucher directly, or reject a pending one", (*approval.Service).Delete)
}

func newEditCommand() *cobra.Command {
	var who actorFlags
	cmd := &cobra.Command{
		Use:   "edit <voucher> <file.csv>",
		Short: "Replace the lines of a posted voucher",
		Long: "Replace every line of a posted voucher with the rows of a CSV batch.\n" +
			"Use 'bursar show' to export the current lines as a starting point.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readBatch(args[1], model.StatusPosted)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				ids, err := a.approvals.Edit(who.actor(), args[0], lines)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Edited %s (%d lines)\n", args[0], len(ids))
				return nil
			})
		},
	}
	who.register(cmd)
	return cmd
}

func newQueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List postings awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				return writeQueue(cmd.OutOrStdout(), a.approvals.Queue())
			})
		},
	}
}

func writeQueue(w io.Writer, q approval.Queue) error {
	sections := []struct {
		title    string
		postings []model.Posting
	}{
		{"Pending", q.Pending},
		{"Rejected", q.Rejected},
		{"Delete requested", q.DeletePending},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", s.title, len(s.postings))
		if len(s.postings) == 0 {
			continue
		}
		if err := writePostingRows(w, s.postings); err != nil {
			return err
		}
	}
	return nil
}
