package commands

import (
	"context"
	"fmt"
)

// AuthCmd groups credential operations.
type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"Authenticate against the remote and show the identity"`
	Status AuthStatusCmd `cmd:"" help:"Check whether the stored credentials still work"`
}

// AuthLoginCmd verifies the token and prints the resolved identity.
type AuthLoginCmd struct{}

func (a *AuthLoginCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := b.Authenticate(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Authenticated as %s", user.Login)
	if user.Name != "" && user.Name != user.Login {
		fmt.Printf(" (%s)", user.Name)
	}
	fmt.Println()
	return nil
}

// AuthStatusCmd reports credential health.
type AuthStatusCmd struct{}

func (a *AuthStatusCmd) Run(_ *Global, root *CLI) error {
	b, cleanup, err := setup(root)
	if err != nil {
		return err
	}
	defer cleanup()

	if b.AuthStatus(context.Background()) {
		fmt.Println("credentials ok")
	} else {
		fmt.Println("credentials invalid or remote unreachable")
	}
	return nil
}
