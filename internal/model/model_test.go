package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

func parseSQL(t *testing.T, sql string) (Statement, error) {
	t.Helper()
	root, err := sqltoken.Tokenize(sql)
	require.NoError(t, err)
	return Parse(root)
}

func mustParse(t *testing.T, sql string) Statement {
	t.Helper()
	stmt, err := parseSQL(t, sql)
	require.NoError(t, err)
	return stmt
}

func TestParse_SimpleSelect(t *testing.T) {
	stmt := mustParse(t, "SELECT users.name, users.age FROM users WHERE users.age > 30 LIMIT 5")
	sel, ok := stmt.(*Select)
	require.True(t, ok)

	require.Len(t, sel.Tables, 1)
	assert.Equal(t, "users", sel.PrincipalTable().Name)

	require.Len(t, sel.Projection, 2)
	assert.Equal(t, "name", sel.Projection[0].Name)
	assert.Equal(t, 0, sel.Projection[0].Position)
	assert.Equal(t, "age", sel.Projection[1].Name)
	assert.Equal(t, 1, sel.Projection[1].Position)

	require.Len(t, sel.PrincipalTable().Filters, 1)
	f := sel.PrincipalTable().Filters[0]
	assert.Equal(t, "age", f.Column.Name)
	assert.Equal(t, OpGreaterThan, f.Operator)
	assert.Equal(t, int64(30), f.Value)

	require.NotNil(t, sel.Limit)
	assert.Equal(t, 5, *sel.Limit)
	assert.False(t, sel.Distinct)
	assert.Nil(t, sel.OrderBy)
}

func TestParse_ColumnAliases(t *testing.T) {
	stmt := mustParse(t, "SELECT users.name AS full_name, users.ref FROM users")
	sel := stmt.(*Select)

	require.Len(t, sel.Projection, 2)
	assert.Equal(t, "full_name", sel.Projection[0].Alias)
	// The database-native ref column surfaces as id.
	assert.Equal(t, "ref", sel.Projection[1].Name)
	assert.Equal(t, "id", sel.Projection[1].Alias)
	assert.True(t, sel.Projection[1].IsID())
}

func TestParse_DistinctAndOrder(t *testing.T) {
	stmt := mustParse(t, "SELECT DISTINCT users.name FROM users ORDER BY users.age DESC")
	sel := stmt.(*Select)

	assert.True(t, sel.Distinct)
	require.NotNil(t, sel.OrderBy)
	require.Len(t, sel.OrderBy.Columns, 1)
	assert.Equal(t, "age", sel.OrderBy.Columns[0].Name)
	assert.Equal(t, Descending, sel.OrderBy.Direction)
}

func TestParse_OperandOrderIrrelevant(t *testing.T) {
	a := mustParse(t, "SELECT users.name FROM users WHERE users.age > 30").(*Select)
	b := mustParse(t, "SELECT users.name FROM users WHERE 30 < users.age").(*Select)

	require.Len(t, a.PrincipalTable().Filters, 1)
	require.Len(t, b.PrincipalTable().Filters, 1)
	assert.Equal(t, a.PrincipalTable().Filters[0], b.PrincipalTable().Filters[0])
}

func TestParse_IsNullFilter(t *testing.T) {
	sel := mustParse(t, "SELECT users.name FROM users WHERE users.age IS NULL").(*Select)
	require.Len(t, sel.PrincipalTable().Filters, 1)
	assert.Equal(t, OpIsNull, sel.PrincipalTable().Filters[0].Operator)
	assert.Nil(t, sel.PrincipalTable().Filters[0].Value)
}

func TestParse_SingleValueInDegeneratesToEquality(t *testing.T) {
	sel := mustParse(t, "SELECT users.name FROM users WHERE users.id IN ('101')").(*Select)
	require.Len(t, sel.PrincipalTable().Filters, 1)
	f := sel.PrincipalTable().Filters[0]
	assert.Equal(t, OpEqual, f.Operator)
	assert.Equal(t, "101", f.Value)
	assert.True(t, f.Column.IsID())
}

func TestParse_RejectedPredicates(t *testing.T) {
	cases := map[string]struct {
		sql     string
		mention string
	}{
		"not equal":   {"SELECT users.name FROM users WHERE users.age <> 30", "<>"},
		"bang equal":  {"SELECT users.name FROM users WHERE users.age != 30", "!="},
		"like":        {"SELECT users.name FROM users WHERE users.name LIKE 'B%'", "LIKE"},
		"between":     {"SELECT users.name FROM users WHERE users.age BETWEEN 20 AND 30", "BETWEEN"},
		"or":          {"SELECT users.name FROM users WHERE users.age = 30 OR users.name = 'Bob'", "OR"},
		"multi in":    {"SELECT users.name FROM users WHERE users.id IN ('1', '2')", "IN"},
		"is not null": {"SELECT users.name FROM users WHERE users.age IS NOT NULL", "IS NOT NULL"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSQL(t, tc.sql)
			require.Error(t, err)
			assert.True(t, IsNotSupported(err), "want NotSupportedError, got %v", err)
			assert.Contains(t, err.Error(), tc.mention)
		})
	}
}

func TestParse_WildcardRejected(t *testing.T) {
	_, err := parseSQL(t, "SELECT * FROM users")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
	assert.Contains(t, err.Error(), "Wildcards (*) are not yet supported")
}

func TestParse_UnjoinedTablesRejected(t *testing.T) {
	_, err := parseSQL(t, "SELECT users.name FROM users, accounts")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
	assert.Contains(t, err.Error(), "join them together")
}

func TestParse_SumRejected(t *testing.T) {
	_, err := parseSQL(t, "SELECT sum(users.id) FROM users")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
	assert.Contains(t, err.Error(), "SUM")
}

func TestParse_CountAggregate(t *testing.T) {
	sel := mustParse(t, "SELECT count(users.id) AS count_1 FROM users").(*Select)
	require.NotNil(t, sel.Aggregate)
	assert.Equal(t, AggregateCount, sel.Aggregate.Kind)
	assert.Equal(t, "id", sel.Aggregate.Column.Name)
	assert.Equal(t, "count_1", sel.Aggregate.Alias)
}

func TestParse_JoinChain(t *testing.T) {
	sel := mustParse(t,
		"SELECT users.name FROM users JOIN accounts ON users.id = accounts.user_id WHERE accounts.amount > 5.0").(*Select)

	require.Len(t, sel.Tables, 2)
	users := sel.PrincipalTable()
	accounts := sel.Tables[1]
	assert.Equal(t, "accounts", accounts.Name)

	// The foreign-key owner hangs to the right of the referenced table.
	assert.Equal(t, 1, users.Right)
	assert.Equal(t, -1, users.Left)
	assert.Equal(t, 0, accounts.Left)
	assert.Equal(t, -1, accounts.Right)
	require.NotNil(t, users.RightKey)
	assert.Equal(t, "user_id", users.RightKey.Name)
	assert.Equal(t, 1, users.RightKey.Table)

	require.Len(t, accounts.Filters, 1)
	assert.Equal(t, OpGreaterThan, accounts.Filters[0].Operator)
	assert.Equal(t, 5.0, accounts.Filters[0].Value)
}

func TestParse_JoinOperandOrderIrrelevant(t *testing.T) {
	a := mustParse(t, "SELECT users.name FROM users JOIN accounts ON users.id = accounts.user_id").(*Select)
	b := mustParse(t, "SELECT users.name FROM users JOIN accounts ON accounts.user_id = users.id").(*Select)
	assert.Equal(t, a.PrincipalTable().Right, b.PrincipalTable().Right)
	assert.Equal(t, a.Tables[1].Left, b.Tables[1].Left)
}

func TestParse_MultiHopChain(t *testing.T) {
	sel := mustParse(t,
		"SELECT teams.name FROM teams JOIN players ON teams.id = players.team_id JOIN stats ON players.id = stats.player_id").(*Select)

	require.Len(t, sel.Tables, 3)
	assert.Equal(t, []int{2, 1}, sel.ChainRightOf())
	assert.Empty(t, sel.ChainLeftOf())
}

func TestParse_ReverseChain(t *testing.T) {
	sel := mustParse(t,
		"SELECT stats.goals FROM stats JOIN players ON players.id = stats.player_id").(*Select)

	// stats owns the foreign key, so players sits to its left.
	require.Len(t, sel.Tables, 2)
	assert.Equal(t, 1, sel.PrincipalTable().Left)
	assert.Equal(t, []int{1}, sel.ChainLeftOf())
}

func TestParse_BranchingJoinRejected(t *testing.T) {
	_, err := parseSQL(t,
		"SELECT users.name FROM users JOIN accounts ON users.id = accounts.user_id JOIN sessions ON users.id = sessions.user_id")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
	assert.Contains(t, err.Error(), "branching")
}

func TestParse_NonRefJoinRejected(t *testing.T) {
	_, err := parseSQL(t, "SELECT users.name FROM users JOIN accounts ON users.name = accounts.label")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
}

func TestParse_BothIDJoinIsInternalError(t *testing.T) {
	_, err := parseSQL(t, "SELECT users.name FROM users JOIN accounts ON users.id = accounts.id")
	require.Error(t, err)
	assert.False(t, IsNotSupported(err))
	assert.Contains(t, err.Error(), "no identifiable foreign key")
}

func TestParse_OrderByJoinedColumnRejected(t *testing.T) {
	_, err := parseSQL(t,
		"SELECT users.name FROM users JOIN accounts ON users.id = accounts.user_id ORDER BY accounts.amount")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
	assert.Contains(t, err.Error(), "Sort is limited")
}

func TestParse_CrossTableCountRejected(t *testing.T) {
	_, err := parseSQL(t,
		"SELECT count(accounts.id) FROM users JOIN accounts ON users.id = accounts.user_id")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
}

func TestParse_Insert(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO users (name, age, is_admin) VALUES ('Bob', 30, TRUE)")
	ins, ok := stmt.(*Insert)
	require.True(t, ok)

	assert.Equal(t, "users", ins.Collection)
	require.Len(t, ins.Columns, 3)
	assert.Equal(t, "name", ins.Columns[0].Name)
	assert.Equal(t, "Bob", ins.Columns[0].Value)
	assert.Equal(t, int64(30), ins.Columns[1].Value)
	assert.Equal(t, true, ins.Columns[2].Value)
}

func TestParse_InsertEscapedQuotes(t *testing.T) {
	stmt := mustParse(t,
		"INSERT INTO users (name, nickname, initials) VALUES ('O''Brien', 'abc''', '''')")
	ins, ok := stmt.(*Insert)
	require.True(t, ok)

	require.Len(t, ins.Columns, 3)
	assert.Equal(t, "O'Brien", ins.Columns[0].Value)
	assert.Equal(t, "abc'", ins.Columns[1].Value)
	assert.Equal(t, "'", ins.Columns[2].Value)
}

func TestParse_InsertWithoutColumnsRejected(t *testing.T) {
	_, err := parseSQL(t, "INSERT INTO users VALUES ('Bob', 30)")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
}

func TestParse_MultiRowInsertRejected(t *testing.T) {
	_, err := parseSQL(t, "INSERT INTO users (name) VALUES ('Bob'), ('Alice')")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))
}

func TestParse_InsertArityMismatch(t *testing.T) {
	_, err := parseSQL(t, "INSERT INTO users (name, age) VALUES ('Bob')")
	require.Error(t, err)
	assert.False(t, IsNotSupported(err))
}

func TestParse_Update(t *testing.T) {
	stmt := mustParse(t, "UPDATE users SET name = 'Rob', age = 31 WHERE users.id = '101'")
	upd, ok := stmt.(*Update)
	require.True(t, ok)

	assert.Equal(t, "users", upd.PrincipalTable().Name)
	require.Len(t, upd.Sets, 2)
	assert.Equal(t, "Rob", upd.Sets[0].Value)
	assert.Equal(t, int64(31), upd.Sets[1].Value)

	require.Len(t, upd.PrincipalTable().Filters, 1)
	assert.True(t, upd.PrincipalTable().Filters[0].Column.IsID())
}

func TestParse_Delete(t *testing.T) {
	stmt := mustParse(t, "DELETE FROM users WHERE users.age < 18")
	del, ok := stmt.(*Delete)
	require.True(t, ok)
	require.Len(t, del.PrincipalTable().Filters, 1)
	assert.Equal(t, OpLessThan, del.PrincipalTable().Filters[0].Operator)
}

func TestParse_CreateTable(t *testing.T) {
	stmt := mustParse(t,
		"CREATE TABLE users (id INTEGER NOT NULL, name VARCHAR(250) UNIQUE, age INTEGER DEFAULT 30, PRIMARY KEY (id))")
	ct, ok := stmt.(*CreateTable)
	require.True(t, ok)

	assert.Equal(t, "users", ct.Collection)
	require.Len(t, ct.Columns, 3)
	assert.True(t, ct.Columns[0].NotNull)
	assert.True(t, ct.Columns[0].PrimaryKey)
	assert.Equal(t, "VARCHAR", ct.Columns[1].Type)
	assert.True(t, ct.Columns[1].Unique)
	assert.True(t, ct.Columns[2].HasDefault)
	assert.Equal(t, int64(30), ct.Columns[2].Default)
}

func TestParse_CreateTableForeignKey(t *testing.T) {
	stmt := mustParse(t,
		"CREATE TABLE accounts (id INTEGER PRIMARY KEY, user_id INTEGER, FOREIGN KEY (user_id) REFERENCES users (id))")
	ct := stmt.(*CreateTable)
	require.NotNil(t, ct.ForeignKey)
	assert.Equal(t, "user_id", ct.ForeignKey.Column)
	assert.Equal(t, "users", ct.ForeignKey.RefTable)
}

func TestParse_CreateTableRejections(t *testing.T) {
	cases := map[string]string{
		"check": "CREATE TABLE users (age INTEGER, CHECK (age > 0))",
		"multiple fks": "CREATE TABLE accounts (a_id INTEGER, b_id INTEGER, " +
			"FOREIGN KEY (a_id) REFERENCES a (id), FOREIGN KEY (b_id) REFERENCES b (id))",
		"non id reference": "CREATE TABLE accounts (user_name VARCHAR, " +
			"FOREIGN KEY (user_name) REFERENCES users (name))",
	}
	for name, sql := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSQL(t, sql)
			require.Error(t, err)
			assert.True(t, IsNotSupported(err), "want NotSupportedError, got %v", err)
		})
	}
}

func TestParse_CreateIndex(t *testing.T) {
	stmt := mustParse(t, "CREATE UNIQUE INDEX ix_users_name ON users (name)")
	ci, ok := stmt.(*CreateIndex)
	require.True(t, ok)
	assert.Equal(t, "ix_users_name", ci.Name)
	assert.Equal(t, "users", ci.Collection)
	assert.Equal(t, "name", ci.Column)
	assert.True(t, ci.Unique)
}

func TestParse_AlterTableDropDefault(t *testing.T) {
	stmt := mustParse(t, "ALTER TABLE users ALTER COLUMN age DROP DEFAULT")
	at, ok := stmt.(*AlterTable)
	require.True(t, ok)
	assert.Equal(t, "users", at.Collection)
	assert.Equal(t, "age", at.Column)
}

func TestParse_AlterTableRejections(t *testing.T) {
	cases := map[string]string{
		"rename":      "ALTER TABLE users RENAME TO people",
		"add column":  "ALTER TABLE users ADD COLUMN email VARCHAR",
		"set default": "ALTER TABLE users ALTER COLUMN age SET DEFAULT 21",
	}
	for name, sql := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSQL(t, sql)
			require.Error(t, err)
			assert.True(t, IsNotSupported(err), "want NotSupportedError, got %v", err)
		})
	}
}
