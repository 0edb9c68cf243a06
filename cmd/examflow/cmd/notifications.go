package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmcleod/examflow/api"
)

var notificationsCmd = &cobra.Command{
	Use:               "notifications",
	Aliases:           []string{"notif"},
	Short:             "Read exam notifications",
	PersistentPreRunE: setupSignedIn,
}

var (
	notifFilter api.NotificationFilter
	notifUnread bool
)

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := notifFilter
		if notifUnread {
			unread := false
			f.IsRead = &unread
		}
		list, err := rt.client.Notifications.List(cmd.Context(), f)
		if err != nil {
			return describe("listing notifications", err)
		}
		return render(cmd, list, func(w io.Writer) { notificationTable(w, list) })
	},
}

func notificationTable(w io.Writer, list []api.Notification) {
	fmt.Fprintln(w, "ID\t \tPRIORITY\tTYPE\tTITLE\tRECEIVED")
	for _, n := range list {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", n.ID, mark, n.Priority, n.NotificationType, n.Title, n.CreatedAt)
	}
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := api.ParseID(args[0])
		if err != nil {
			return err
		}
		msg, err := rt.client.Notifications.MarkRead(cmd.Context(), id)
		if err != nil {
			return describe("marking notification read", err)
		}
		fmt.Fprintln(out(cmd), msg)
		return nil
	},
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := rt.client.Notifications.MarkAllRead(cmd.Context())
		if err != nil {
			return describe("marking notifications read", err)
		}
		fmt.Fprintln(out(cmd), msg)
		return nil
	},
}

var notificationsUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Print the number of unread notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := rt.client.Notifications.UnreadCount(cmd.Context())
		if err != nil {
			return describe("counting notifications", err)
		}
		return render(cmd, map[string]int{"unread_count": n}, func(w io.Writer) {
			fmt.Fprintln(w, n)
		})
	},
}

var notificationsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize notifications and show the latest",
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := rt.client.Notifications.Summary(cmd.Context())
		if err != nil {
			return describe("loading summary", err)
		}
		return render(cmd, sum, func(w io.Writer) {
			s := sum.Summary
			fmt.Fprintf(w, "Total:\t%d\nUnread:\t%d\nHigh priority:\t%d\nUrgent:\t%d\n\n", s.Total, s.Unread, s.HighPriority, s.Urgent)
			if len(sum.Recent) > 0 {
				notificationTable(w, sum.Recent)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd, notificationsReadAllCmd, notificationsUnreadCmd, notificationsSummaryCmd)

	lf := notificationsListCmd.Flags()
	lf.BoolVar(&notifUnread, "unread", false, "Only unread notifications")
	lf.StringVar(&notifFilter.Type, "type", "", "exam_created, exam_updated, exam_cancelled, room_changed, time_changed or system_alert")
	lf.StringVar(&notifFilter.Priority, "priority", "", "low, medium, high or urgent")
}
