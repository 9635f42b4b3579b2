package main

import (
	"context"
	"fmt"

	"github.com/trezcool/placement/core/user"
)

// hashPassword prints the bcrypt hash for the sessionDemoPasswordHash setting.
// The password must pass the policy against every demo account.
func (cli *commandLine) hashPassword(pwd string) error {
	accounts, err := cli.users.Filter("", "")
	if err != nil {
		return err
	}
	attrs := make([]string, 0, 2*len(accounts))
	for _, acc := range accounts {
		attrs = append(attrs, acc.Name, acc.Email)
	}
	if err := user.CheckPasswordPolicy(pwd, attrs...); err != nil {
		return err
	}

	var usr user.User
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(usr.PasswordHash))
	return nil
}

func (cli *commandLine) get(ctx context.Context, key string) error {
	value, found, err := cli.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%q: no such key", key)
	}
	fmt.Fprintln(cli.out, value)
	return nil
}
