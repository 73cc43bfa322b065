package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the account",
	Long: `Log in with email and password. The user id is stored in the session
store so later commands run as this account. The password is read from stdin
when --password is omitted.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil && !errors.HasCode(err, errors.ErrCodeNotAuthenticated) {
			return err
		}
		if err := app.Sessions.Logout(cmd.Context(), state); err != nil {
			return err
		}
		app.Printer.Success("로그아웃 되었습니다.")
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the logged-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		profile, err := app.Auth.Profile(cmd.Context(), state.UserID)
		if err != nil {
			return err
		}
		if jsonFlag(cmd) {
			return writeJSON(cmd.OutOrStdout(), profile)
		}
		p := app.Printer
		p.Header("내 정보")
		p.Print("  user id:  %s", profile.UserID)
		p.Print("  email:    %s", profile.Email)
		p.Print("  nickname: %s", profile.Nickname)
		if profile.Age > 0 {
			p.Print("  age:      %d", profile.Age)
		}
		if profile.Sex != "" {
			p.Print("  sex:      %s", profile.Sex)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, profileCmd)

	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (read from stdin when empty)")
	_ = loginCmd.MarkFlagRequired("email")

	signupCmd.Flags().String("email", "", "account email")
	signupCmd.Flags().String("password", "", "password, at least 8 characters (read from stdin when empty)")
	signupCmd.Flags().String("nickname", "", "display name")
	signupCmd.Flags().Int("age", 0, "age in years")
	signupCmd.Flags().String("sex", "", "male or female")
	_ = signupCmd.MarkFlagRequired("email")
	_ = signupCmd.MarkFlagRequired("nickname")

	profileCmd.Flags().Bool("json", false, "output as JSON")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, err := passwordFlag(cmd)
	if err != nil {
		return err
	}

	_, resp, err := app.Sessions.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	name := resp.Nickname
	if name == "" {
		name = resp.UserID.String()
	}
	app.Printer.Success("%s 님, 환영합니다!", name)
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	nickname, _ := cmd.Flags().GetString("nickname")
	age, _ := cmd.Flags().GetInt("age")
	sex, _ := cmd.Flags().GetString("sex")
	password, err := passwordFlag(cmd)
	if err != nil {
		return err
	}

	resp, err := app.Auth.Signup(cmd.Context(), models.SignupRequest{
		Email:    email,
		Password: password,
		Nickname: nickname,
		Age:      age,
		Sex:      models.Sex(strings.ToLower(sex)),
	})
	if err != nil {
		return err
	}

	app.Printer.Success("회원가입이 완료되었습니다. 이제 로그인할 수 있습니다.")
	if resp.Message != "" {
		app.Printer.Print("%s", app.Printer.Dim(resp.Message))
	}
	return nil
}

// passwordFlag returns --password, or the first line of stdin when it is empty.
func passwordFlag(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.NewInvalidInputError("password", err.Error())
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
