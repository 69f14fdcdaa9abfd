package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/equitygate/internal/common"
	pb "github.com/dmitrijs2005/equitygate/internal/proto"
)

// Register collects the common identity fields and then the fields of the
// chosen role before submitting the registration.
func (a *App) Register(ctx context.Context) error {
	req := &pb.RegisterRequest{}
	var err error

	if req.Email, err = a.prompt("-Enter email"); err != nil {
		return a.report(err)
	}
	password, err := getPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if req.FirstName, err = a.prompt("-First name"); err != nil {
		return a.report(err)
	}
	if req.LastName, err = a.prompt("-Last name"); err != nil {
		return a.report(err)
	}
	if req.Role, err = a.prompt("-Role (company, investor, shareholder)"); err != nil {
		return a.report(err)
	}

	if err := a.promptRoleFields(req); err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.client.Register(ctx, req)
	if err != nil {
		return a.report(err)
	}

	switch resp.Status {
	case "already_registered":
		a.println("Account already verified, you can log in")
	default:
		a.println("Verification code sent to", req.Email)
	}
	return nil
}

func (a *App) promptRoleFields(req *pb.RegisterRequest) error {
	var err error

	switch req.Role {
	case "company":
		if req.CompanyName, err = a.prompt("-Company name"); err != nil {
			return err
		}
		if req.ContactEmail, err = a.prompt("-Contact email"); err != nil {
			return err
		}
		if req.Website, err = a.prompt("-Website"); err != nil {
			return err
		}

	case "investor":
		if req.InvestorType, err = a.prompt("-Investor type (individual, institutional)"); err != nil {
			return err
		}
		if req.Budget, err = a.promptFloat("-Budget"); err != nil {
			return err
		}

	case "shareholder":
		s, err := a.prompt("-Shares held")
		if err != nil {
			return err
		}
		if req.SharesHeld, err = strconv.ParseInt(s, 10, 64); err != nil {
			return fmt.Errorf("shares held: %w", err)
		}
		if req.ShareValue, err = a.promptFloat("-Share value"); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) promptFloat(text string) (float64, error) {
	s, err := a.prompt(text)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", text[1:], err)
	}
	return v, nil
}

func (a *App) ResendOTP(ctx context.Context) error {
	email, err := a.prompt("-Enter email")
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.ResendOTP(ctx, email); err != nil {
		return a.report(err)
	}
	a.println("A new verification code was sent")
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	email, err := a.prompt("-Enter email")
	if err != nil {
		return a.report(err)
	}
	code, err := a.prompt("-Enter verification code")
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if _, err := a.client.Verify(ctx, email, code); err != nil {
		return a.report(err)
	}
	a.println("Account verified")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.prompt("-Enter email")
	if err != nil {
		return a.report(err)
	}
	password, err := getPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return a.report(err)
	}

	a.email = email
	a.role = resp.Role
	a.println("Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.client.Logout()
	a.email = ""
	a.role = ""
	a.println("Logged out")
	return nil
}

func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := a.prompt("-Enter email")
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.RequestPasswordReset(ctx, email); err != nil {
		return a.report(err)
	}
	a.println("If the account exists, a reset link was sent")
	return nil
}

func (a *App) ResetPassword(ctx context.Context) error {
	token, err := a.prompt("-Enter reset token")
	if err != nil {
		return a.report(err)
	}
	password, err := getPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.ResetPassword(ctx, token, password); err != nil {
		return a.report(err)
	}
	a.println("Password updated")
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		return a.report(err)
	}
	a.println("Server is up")
	return nil
}
