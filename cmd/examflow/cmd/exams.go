package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/schedule"
)

var examsCmd = &cobra.Command{
	Use:               "exams",
	Short:             "List, schedule and cancel exams",
	PersistentPreRunE: setupSignedIn,
}

var examFilter api.ExamFilter

var examsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exams visible to you",
	RunE: func(cmd *cobra.Command, args []string) error {
		exams, err := rt.client.Exams.List(cmd.Context(), examFilter)
		if err != nil {
			return describe("listing exams", err)
		}
		return render(cmd, exams, func(w io.Writer) { examTable(w, exams) })
	},
}

var examsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Show your upcoming and past exams",
	RunE: func(cmd *cobra.Command, args []string) error {
		exams, err := rt.client.Exams.Mine(cmd.Context())
		if err != nil {
			return describe("listing your exams", err)
		}
		upcoming, past := schedule.Partition(exams, time.Now())
		v := struct {
			Upcoming []api.Exam `json:"upcoming"`
			Past     []api.Exam `json:"past"`
		}{upcoming, past}
		return render(cmd, v, func(w io.Writer) {
			fmt.Fprintf(w, "Upcoming (%d)\n", len(upcoming))
			if len(upcoming) == 0 {
				fmt.Fprintln(w, "No upcoming exams scheduled.")
			} else {
				examTable(w, upcoming)
			}
			fmt.Fprintf(w, "\nPast (%d)\n", len(past))
			examTable(w, past)
		})
	},
}

func examTable(w io.Writer, exams []api.Exam) {
	fmt.Fprintln(w, "ID\tCOURSE\tTYPE\tDATE\tTIME\tROOM\tSTUDENTS\tSTATUS")
	for _, e := range exams {
		course, room := "-", "-"
		if e.Course != nil {
			course = e.Course.Code
		}
		if e.Room != nil {
			room = e.Room.Name
			if e.Room.Building != nil {
				room = e.Room.Building.Code + "-" + e.Room.Name
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s-%s\t%s\t%d\t%s\n",
			e.ID, course, e.ExamType, e.Date, shortTime(e.StartTime), shortTime(e.EndTime), room, e.MaxStudents, e.Status)
	}
}

var (
	examForm          = schedule.NewExamForm()
	examSkipConflicts bool
)

var examsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Schedule an exam",
	Long: `Schedules an exam for a course in a room. The end time is derived from the
start time and duration. The head count is checked against the room's
capacity and, unless --skip-conflict-check is given, the slot is checked for
overlapping exams before anything is sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rooms, err := rt.client.Rooms.List(ctx, api.RoomFilter{})
		if err != nil {
			rt.logger.Warn("exams: room list unavailable, skipping capacity check", "error", err)
		}

		in, err := schedule.Prepare(examForm, rooms)
		if err != nil {
			return describe("invalid exam", err)
		}

		if !examSkipConflicts {
			if room := findRoom(rooms, in.Room); room != nil {
				res, err := rt.client.Exams.CheckConflicts(ctx, api.ConflictCheck{
					Date: in.Date, StartTime: in.StartTime, EndTime: in.EndTime, RoomID: room.ID,
				})
				if err != nil {
					return describe("checking conflicts", err)
				}
				if res.HasConflicts {
					examTable(out(cmd), res.Conflicts)
					return fmt.Errorf("room %s is not available at this time", orDash(room.FullName))
				}
			}
		}

		exam, err := rt.client.Exams.Create(ctx, in)
		if err != nil {
			return describe("scheduling exam", err)
		}
		return render(cmd, exam, func(w io.Writer) {
			fmt.Fprintf(w, "Scheduled exam %d: %s %s, %s-%s in %s\n",
				exam.ID, in.Course, in.Date, in.StartTime, in.EndTime, in.Room)
		})
	},
}

func findRoom(rooms []api.Room, name string) *api.Room {
	for i := range rooms {
		if rooms[i].Name == name {
			return &rooms[i]
		}
	}
	return nil
}

var examsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an exam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := api.ParseID(args[0])
		if err != nil {
			return err
		}
		if err := rt.client.Exams.Delete(cmd.Context(), id); err != nil {
			return describe("deleting exam", err)
		}
		fmt.Fprintf(out(cmd), "Deleted exam %d\n", id)
		return nil
	},
}

var conflictReq api.ConflictCheck

var examsConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Check a room and time slot for overlapping exams",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := rt.client.Exams.CheckConflicts(cmd.Context(), conflictReq)
		if err != nil {
			return describe("checking conflicts", err)
		}
		return render(cmd, res, func(w io.Writer) {
			if !res.HasConflicts {
				fmt.Fprintln(w, "No conflicts")
				return
			}
			examTable(w, res.Conflicts)
		})
	},
}

var deptScheduleRange api.DateRange

var examsDepartmentCmd = &cobra.Command{
	Use:   "department [id]",
	Short: "Show a department's exam schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := api.ParseID(args[0])
		if err != nil {
			return err
		}
		sched, err := rt.client.Exams.DepartmentSchedule(cmd.Context(), id, deptScheduleRange)
		if err != nil {
			return describe("loading department schedule", err)
		}
		return render(cmd, sched, func(w io.Writer) { examTable(w, sched.Exams) })
	},
}

var courseFilter api.CourseFilter

var examsCoursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		courses, err := rt.client.Exams.Courses(cmd.Context(), courseFilter)
		if err != nil {
			return describe("listing courses", err)
		}
		return render(cmd, courses, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tCODE\tNAME\tCREDITS\tSEMESTER\tINSTRUCTOR")
			for _, c := range courses {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", c.ID, c.Code, c.Name, c.Credits, orDash(c.Semester), userLine(c.Instructor))
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(examsCmd)
	examsCmd.AddCommand(examsListCmd, examsMineCmd, examsCreateCmd, examsDeleteCmd, examsConflictsCmd, examsDepartmentCmd, examsCoursesCmd)

	lf := examsListCmd.Flags()
	lf.Int64Var(&examFilter.Department, "department", 0, "Department ID")
	lf.StringVar(&examFilter.DateFrom, "from", "", "Earliest date, YYYY-MM-DD")
	lf.StringVar(&examFilter.DateTo, "to", "", "Latest date, YYYY-MM-DD")
	lf.StringVar(&examFilter.Status, "status", "", "scheduled, confirmed, cancelled or completed")

	cf := examsCreateCmd.Flags()
	cf.StringVar(&examForm.Course, "course", "", "Course code, e.g. COMP101")
	cf.StringVar(&examForm.ExamType, "type", examForm.ExamType, "midterm, final, quiz or makeup")
	cf.StringVar(&examForm.Date, "date", "", "Exam date, YYYY-MM-DD")
	cf.StringVar(&examForm.StartTime, "start", "", "Start time, HH:MM")
	cf.IntVar(&examForm.DurationMinutes, "duration", examForm.DurationMinutes, "Duration in minutes")
	cf.StringVar(&examForm.Room, "room", "", "Room name, e.g. T312")
	cf.IntVar(&examForm.MaxStudents, "max-students", examForm.MaxStudents, "Expected number of students")
	cf.StringVar(&examForm.Notes, "notes", "", "Notes for students")
	cf.BoolVar(&examSkipConflicts, "skip-conflict-check", false, "Do not check the slot for overlapping exams first")

	kf := examsConflictsCmd.Flags()
	kf.StringVar(&conflictReq.Date, "date", "", "Date, YYYY-MM-DD")
	kf.StringVar(&conflictReq.StartTime, "start", "", "Start time, HH:MM")
	kf.StringVar(&conflictReq.EndTime, "end", "", "End time, HH:MM")
	kf.Int64Var(&conflictReq.RoomID, "room-id", 0, "Room ID")
	kf.Int64Var(&conflictReq.ExcludeExamID, "exclude", 0, "Exam ID to ignore, when rescheduling")

	df := examsDepartmentCmd.Flags()
	df.StringVar(&deptScheduleRange.From, "from", "", "Earliest date, YYYY-MM-DD")
	df.StringVar(&deptScheduleRange.To, "to", "", "Latest date, YYYY-MM-DD")

	of := examsCoursesCmd.Flags()
	of.Int64Var(&courseFilter.Department, "department", 0, "Department ID")
	of.Int64Var(&courseFilter.Instructor, "instructor", 0, "Instructor user ID")
	of.StringVar(&courseFilter.Semester, "semester", "", "Semester, e.g. Fall 2025")
}
