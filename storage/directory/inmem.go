// Package directory holds the account directory the session logs in against.
package directory

import (
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/user"
)

type userTable struct {
	sync.RWMutex
	table map[string]*user.User
}

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

// NewUserRepository returns an in-memory directory holding accounts.
func NewUserRepository(accounts ...user.User) user.Repository {
	repo := &userRepository{db: &userTable{table: make(map[string]*user.User)}}
	for _, usr := range accounts {
		_, _ = repo.Add(usr)
	}
	return repo
}

// NewDemoRepository returns the directory of demo accounts. When pwdHash is
// set every account requires that bcrypt password.
func NewDemoRepository(pwdHash string) user.Repository {
	accounts := user.DemoAccounts()
	if pwdHash != "" {
		for i := range accounts {
			accounts[i].PasswordHash = []byte(pwdHash)
		}
	}
	return NewUserRepository(accounts...)
}

// query returns every account ordered by ID. Callers hold the lock.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) Add(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.Email = core.CleanString(usr.Email, true /* lower */)
	for _, u := range repo.db.table {
		if u.ID != usr.ID && u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetByID(id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetByEmail(email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	email = core.CleanString(email, true /* lower */)
	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FirstWithRole(role user.Role) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Role == role {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) Filter(role user.Role, search string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search = strings.ToLower(core.CleanString(search))
	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if role != "" && usr.Role != role {
			continue
		}
		if search != "" && !core.ContainsFold(usr.Name, search) && !core.ContainsFold(usr.Email, search) {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}
