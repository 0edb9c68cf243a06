package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmcleod/examflow/api"
)

var roomsCmd = &cobra.Command{
	Use:               "rooms",
	Short:             "Browse rooms and their availability",
	PersistentPreRunE: setupSignedIn,
}

var (
	roomFilter    api.RoomFilter
	roomAvailable bool
)

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := roomFilter
		if cmd.Flags().Changed("available") {
			f.IsAvailable = &roomAvailable
		}
		rooms, err := rt.client.Rooms.List(cmd.Context(), f)
		if err != nil {
			return describe("listing rooms", err)
		}
		return render(cmd, rooms, func(w io.Writer) { roomTable(w, rooms) })
	},
}

func roomTable(w io.Writer, rooms []api.Room) {
	fmt.Fprintln(w, "ID\tROOM\tBUILDING\tCAPACITY\tTYPE\tEQUIPMENT\tAVAILABLE")
	for _, r := range rooms {
		building := "-"
		if r.Building != nil {
			building = r.Building.Code
		}
		var equipment string
		for _, e := range []struct {
			has  bool
			name string
		}{{r.HasProjector, "projector"}, {r.HasComputer, "computers"}, {r.HasWhiteboard, "whiteboard"}} {
			if !e.has {
				continue
			}
			if equipment != "" {
				equipment += ","
			}
			equipment += e.name
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%t\n",
			r.ID, r.Name, building, r.Capacity, orDash(r.RoomType), orDash(equipment), r.IsAvailable)
	}
}

var availabilityReq api.AvailabilityRequest

var roomsAvailabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "List rooms free for a time slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := rt.client.Rooms.CheckAvailability(cmd.Context(), availabilityReq)
		if err != nil {
			return describe("checking availability", err)
		}
		return render(cmd, res, func(w io.Writer) {
			fmt.Fprintf(w, "%d room(s) available\n", res.TotalCount)
			if res.TotalCount > 0 {
				roomTable(w, res.AvailableRooms)
			}
		})
	},
}

var roomScheduleRange api.DateRange

var roomsScheduleCmd = &cobra.Command{
	Use:   "schedule [id]",
	Short: "Show the exams booked in a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := api.ParseID(args[0])
		if err != nil {
			return err
		}
		sched, err := rt.client.Rooms.Schedule(cmd.Context(), id, roomScheduleRange)
		if err != nil {
			return describe("loading room schedule", err)
		}
		return render(cmd, sched, func(w io.Writer) {
			fmt.Fprintf(w, "%s (capacity %d)\n", orDash(sched.Room.FullName), sched.Room.Capacity)
			examTable(w, sched.Exams)
		})
	},
}

var roomsBuildingsCmd = &cobra.Command{
	Use:   "buildings",
	Short: "List buildings",
	RunE: func(cmd *cobra.Command, args []string) error {
		blds, err := rt.client.Rooms.Buildings(cmd.Context())
		if err != nil {
			return describe("listing buildings", err)
		}
		return render(cmd, blds, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tCODE\tNAME\tADDRESS")
			for _, b := range blds {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.ID, b.Code, b.Name, orDash(b.Address))
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.AddCommand(roomsListCmd, roomsAvailabilityCmd, roomsScheduleCmd, roomsBuildingsCmd)

	lf := roomsListCmd.Flags()
	lf.Int64Var(&roomFilter.Building, "building", 0, "Building ID")
	lf.BoolVar(&roomAvailable, "available", true, "Only rooms marked available (or unavailable with =false)")
	lf.IntVar(&roomFilter.MinCapacity, "min-capacity", 0, "Minimum number of seats")

	af := roomsAvailabilityCmd.Flags()
	af.StringVar(&availabilityReq.Date, "date", "", "Date, YYYY-MM-DD")
	af.StringVar(&availabilityReq.StartTime, "start", "", "Start time, HH:MM")
	af.StringVar(&availabilityReq.EndTime, "end", "", "End time, HH:MM")
	af.Int64Var(&availabilityReq.ExcludeExamID, "exclude", 0, "Exam ID to ignore, when rescheduling")

	sf := roomsScheduleCmd.Flags()
	sf.StringVar(&roomScheduleRange.From, "from", "", "Earliest date, YYYY-MM-DD")
	sf.StringVar(&roomScheduleRange.To, "to", "", "Latest date, YYYY-MM-DD")
}
