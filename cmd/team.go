package cmd

import (
	"github.com/bnema/planctl/internal/application"
	"github.com/spf13/cobra"
)

func newTeamCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage members, owners and billing admins of your team",
	}

	cmd.AddCommand(
		newTeamAddCmd(app),
		newEmailActionCmd(app, "remove", "Remove a member; their account returns to Free", "removed", (*application.Store).RemoveTeamMember),
		newEmailActionCmd(app, "make-owner", "Give a member the owner role", "owner", (*application.Store).MakeTeamOwner),
		newEmailActionCmd(app, "transfer", "Hand ownership to another member", "ownership transferred to", (*application.Store).TransferTeamOwnership),
		newEmailActionCmd(app, "activate", "Mark a pending member as active", "active", (*application.Store).MarkMemberAsActive),
		newEmailActionCmd(app, "to-admin", "Turn a member into a billing admin, freeing their seat", "billing admin", (*application.Store).ConvertMemberToBillingAdmin),
		newTeamAdminCmd(app),
	)

	return cmd
}

func newTeamAddCmd(app *app) *cobra.Command {
	var creditLimit int64

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Add a member to a free seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.store.AddTeamMember(cmd.Context(), args[0], creditLimitFlag(cmd, creditLimit)); err != nil {
				return err
			}
			return printf(cmd, "added: %s\n", args[0])
		},
	}

	cmd.Flags().Int64Var(&creditLimit, "credit-limit", 0, "Monthly credit limit for the member")
	return cmd
}

func newTeamAdminCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage billing admins",
	}

	var creditLimit int64
	toMember := &cobra.Command{
		Use:   "to-member <email>",
		Short: "Turn a billing admin into a member; needs a free seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.store.ConvertBillingAdminToMember(cmd.Context(), args[0], creditLimitFlag(cmd, creditLimit)); err != nil {
				return err
			}
			return printf(cmd, "member: %s\n", args[0])
		},
	}
	toMember.Flags().Int64Var(&creditLimit, "credit-limit", 0, "Monthly credit limit for the new member")

	cmd.AddCommand(
		newEmailActionCmd(app, "invite", "Invite a billing admin", "invited", (*application.Store).InviteBillingAdmin),
		newEmailActionCmd(app, "remove", "Remove a billing admin", "removed", (*application.Store).RemoveBillingAdmin),
		newEmailActionCmd(app, "accept", "Accept a pending billing admin invite", "accepted", (*application.Store).AcceptBillingAdminInvite),
		newEmailActionCmd(app, "activate", "Mark a billing admin as active", "active", (*application.Store).MarkBillingAdminAsActive),
		toMember,
	)

	return cmd
}
