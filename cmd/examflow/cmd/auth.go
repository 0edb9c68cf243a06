package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/session"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session for later commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if loginUsername == "" {
			if loginUsername, err = prompt(cmd, "Username"); err != nil {
				return err
			}
		}
		if loginPassword == "" {
			if loginPassword, err = prompt(cmd, "Password"); err != nil {
				return err
			}
		}

		res := rt.session.Login(cmd.Context(), api.LoginRequest{Username: loginUsername, Password: loginPassword})
		if !res.Success {
			return failure(res.Message, res.Payload)
		}
		fmt.Fprintf(out(cmd), "Signed in as %s, %s\n", userLine(res.Data), res.Data.Role)
		return nil
	},
}

var registerReq api.RegisterRequest
var registerRole string
var registerDepartment int64

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in as it",
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if registerReq.Password == "" {
			if registerReq.Password, err = prompt(cmd, "Password"); err != nil {
				return err
			}
		}
		if registerReq.PasswordConfirm == "" {
			if registerReq.PasswordConfirm, err = prompt(cmd, "Confirm password"); err != nil {
				return err
			}
		}
		registerReq.Role = api.Role(registerRole)
		if registerDepartment != 0 {
			registerReq.Department = &registerDepartment
		}
		if err := registerReq.Validate(); err != nil {
			return describe("registration", err)
		}

		res := rt.session.Register(cmd.Context(), registerReq)
		if !res.Success {
			return failure(res.Message, res.Payload)
		}
		fmt.Fprintf(out(cmd), "Account created. Signed in as %s, %s\n", userLine(res.Data.User), res.Data.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt.session.Logout(cmd.Context())
		fmt.Fprintln(out(cmd), "Signed out")
		return nil
	},
}

var whoamiRefresh bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cur := rt.session.Current()
		if !cur.Authenticated() {
			fmt.Fprintln(out(cmd), "Not signed in")
			return nil
		}
		if whoamiRefresh {
			res := rt.session.Refresh(cmd.Context())
			if !res.Success {
				return failure(res.Message, res.Payload)
			}
			cur = rt.session.Current()
		}
		return printUser(cmd, cur)
	},
}

func printUser(cmd *cobra.Command, cur session.Session) error {
	u := cur.User
	return render(cmd, u, func(w io.Writer) {
		fmt.Fprintf(w, "Username:\t%s\n", u.Username)
		fmt.Fprintf(w, "Name:\t%s\n", u.FullName())
		fmt.Fprintf(w, "Email:\t%s\n", u.Email)
		fmt.Fprintf(w, "Role:\t%s\n", u.Role)
		if u.Department != nil {
			fmt.Fprintf(w, "Department:\t%s (%s)\n", u.Department.Name, u.Department.Code)
		}
		if u.StudentID != "" {
			fmt.Fprintf(w, "Student ID:\t%s\n", u.StudentID)
		}
		if u.Phone != "" {
			fmt.Fprintf(w, "Phone:\t%s\n", u.Phone)
		}
	})
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

var (
	profileEmail      string
	profileFirstName  string
	profileLastName   string
	profilePhone      string
	profileStudentID  string
	profileDepartment int64
)

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change profile fields; only the flags given are sent",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		var upd api.ProfileUpdate
		f := cmd.Flags()
		if f.Changed("email") {
			upd.Email = &profileEmail
		}
		if f.Changed("first-name") {
			upd.FirstName = &profileFirstName
		}
		if f.Changed("last-name") {
			upd.LastName = &profileLastName
		}
		if f.Changed("phone") {
			upd.Phone = &profilePhone
		}
		if f.Changed("student-id") {
			upd.StudentID = &profileStudentID
		}
		if f.Changed("department") {
			upd.DepartmentID = &profileDepartment
		}

		res := rt.session.UpdateProfile(cmd.Context(), upd)
		if !res.Success {
			return failure(res.Message, res.Payload)
		}
		return printUser(cmd, rt.session.Current())
	},
}

var passwordReq api.ChangePasswordRequest

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		var err error
		if passwordReq.OldPassword == "" {
			if passwordReq.OldPassword, err = prompt(cmd, "Current password"); err != nil {
				return err
			}
		}
		if passwordReq.NewPassword == "" {
			if passwordReq.NewPassword, err = prompt(cmd, "New password"); err != nil {
				return err
			}
		}
		msg, err := rt.client.Auth.ChangePassword(cmd.Context(), passwordReq)
		if err != nil {
			return describe("changing password", err)
		}
		fmt.Fprintln(out(cmd), msg)
		return nil
	},
}

var departmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "List departments",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := rt.client.Auth.Departments(cmd.Context())
		if err != nil {
			return describe("listing departments", err)
		}
		return render(cmd, deps, func(w io.Writer) {
			fmt.Fprintln(w, "ID\tCODE\tNAME")
			for _, d := range deps {
				fmt.Fprintf(w, "%d\t%s\t%s\n", d.ID, d.Code, d.Name)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, profileCmd, passwordCmd, departmentsCmd)
	profileCmd.AddCommand(profileUpdateCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when empty)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when empty)")

	rf := registerCmd.Flags()
	rf.StringVarP(&registerReq.Username, "username", "u", "", "Username")
	rf.StringVar(&registerReq.Email, "email", "", "Email address")
	rf.StringVarP(&registerReq.Password, "password", "p", "", "Password, at least 8 characters (prompted when empty)")
	rf.StringVar(&registerReq.PasswordConfirm, "password-confirm", "", "Password again (prompted when empty)")
	rf.StringVar(&registerReq.FirstName, "first-name", "", "First name")
	rf.StringVar(&registerReq.LastName, "last-name", "", "Last name")
	rf.StringVar(&registerRole, "role", string(api.RoleStudent), "Role: student, instructor or admin")
	rf.Int64Var(&registerDepartment, "department", 0, "Department ID")
	rf.StringVar(&registerReq.StudentID, "student-id", "", "Student number")
	rf.StringVar(&registerReq.Phone, "phone", "", "Phone number")

	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "Reload the profile from the server first")

	pf := profileUpdateCmd.Flags()
	pf.StringVar(&profileEmail, "email", "", "Email address")
	pf.StringVar(&profileFirstName, "first-name", "", "First name")
	pf.StringVar(&profileLastName, "last-name", "", "Last name")
	pf.StringVar(&profilePhone, "phone", "", "Phone number")
	pf.StringVar(&profileStudentID, "student-id", "", "Student number")
	pf.Int64Var(&profileDepartment, "department", 0, "Department ID")

	passwordCmd.Flags().StringVar(&passwordReq.OldPassword, "old", "", "Current password (prompted when empty)")
	passwordCmd.Flags().StringVar(&passwordReq.NewPassword, "new", "", "New password, at least 8 characters (prompted when empty)")
}
