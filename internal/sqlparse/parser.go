package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ruoyangqiu/5300-Giraffe/internal/ast"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// Parser consumes a Lexer's tokens one at a time, with one token of
// lookahead, mirroring internal/query's Parser.
type Parser struct {
	lexer   *Lexer
	current Token
	peeked  *Token
}

// NewParser creates a Parser over input.
func NewParser(input string) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

// Parse parses a single statement and returns its ast.Stmt.
func Parse(input string) (ast.Stmt, error) {
	p := NewParser(input)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.current.Type == TokenEOF {
		return nil, fmt.Errorf("empty statement")
	}
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d (expected end of statement)", p.current.Value, p.current.Pos)
	}
	return stmt, nil
}

func (p *Parser) advance() error {
	if p.peeked != nil {
		p.current = *p.peeked
		p.peeked = nil
		return nil
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.current.Type != tt {
		return Token{}, fmt.Errorf("expected %s at position %d, got %s", tt, p.current.Pos, p.current.Type)
	}
	tok := p.current
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.current.Type {
	case TokenCreate:
		return p.parseCreate()
	case TokenDrop:
		return p.parseDrop()
	case TokenShow:
		return p.parseShow()
	case TokenInsert:
		return p.parseInsert()
	case TokenDelete:
		return p.parseDelete()
	case TokenSelect:
		return p.parseSelect()
	default:
		return nil, fmt.Errorf("unexpected token %q at position %d (expected a statement keyword)", p.current.Value, p.current.Pos)
	}
}

// parseCreate parses CREATE TABLE or CREATE INDEX.
func (p *Parser) parseCreate() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume CREATE
		return nil, err
	}
	switch p.current.Type {
	case TokenTable:
		return p.parseCreateTable()
	case TokenIndex:
		return p.parseCreateIndex()
	default:
		return nil, fmt.Errorf("expected TABLE or INDEX at position %d, got %s", p.current.Pos, p.current.Type)
	}
}

func (p *Parser) parseCreateTable() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume TABLE
		return nil, err
	}
	ifNotExists := false
	if p.current.Type == TokenIf {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenNot); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenExists); err != nil {
			return nil, err
		}
		ifNotExists = true
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var cols []ast.ColumnDef
	for {
		colName, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		typeTok, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		cols = append(cols, ast.ColumnDef{Name: colName.Value, Type: strings.ToUpper(typeTok.Value)})
		if p.current.Type == TokenComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &ast.CreateTableStmt{Table: name.Value, Columns: cols, IfNotExists: ifNotExists}, nil
}

func (p *Parser) parseCreateIndex() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume INDEX
		return nil, err
	}
	indexName, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOn); err != nil {
		return nil, err
	}
	table, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	cols, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}
	indexType := "BTREE"
	if p.current.Type == TokenUsing {
		if err := p.advance(); err != nil {
			return nil, err
		}
		typeTok, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		indexType = strings.ToUpper(typeTok.Value)
	}
	return &ast.CreateIndexStmt{IndexName: indexName.Value, Table: table.Value, Columns: cols, IndexType: indexType}, nil
}

// parseDrop parses DROP TABLE or DROP INDEX.
func (p *Parser) parseDrop() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume DROP
		return nil, err
	}
	switch p.current.Type {
	case TokenTable:
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		return &ast.DropTableStmt{Table: name.Value}, nil
	case TokenIndex:
		if err := p.advance(); err != nil {
			return nil, err
		}
		indexName, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenOn); err != nil {
			return nil, err
		}
		table, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		return &ast.DropIndexStmt{IndexName: indexName.Value, Table: table.Value}, nil
	default:
		return nil, fmt.Errorf("expected TABLE or INDEX at position %d, got %s", p.current.Pos, p.current.Type)
	}
}

// parseShow parses SHOW TABLES, SHOW COLUMNS FROM t, or SHOW INDEX FROM t.
func (p *Parser) parseShow() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume SHOW
		return nil, err
	}
	switch p.current.Type {
	case TokenTables:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.ShowStmt{Kind: ast.ShowTables}, nil
	case TokenColumns:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenFrom); err != nil {
			return nil, err
		}
		table, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		return &ast.ShowStmt{Kind: ast.ShowColumns, Table: table.Value}, nil
	case TokenIndex:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenFrom); err != nil {
			return nil, err
		}
		table, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		return &ast.ShowStmt{Kind: ast.ShowIndex, Table: table.Value}, nil
	default:
		return nil, fmt.Errorf("expected TABLES, COLUMNS or INDEX at position %d, got %s", p.current.Pos, p.current.Type)
	}
}

// parseInsert parses INSERT INTO t (cols...) VALUES (vals...).
func (p *Parser) parseInsert() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume INSERT
		return nil, err
	}
	if _, err := p.expect(TokenInto); err != nil {
		return nil, err
	}
	table, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	cols, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenValues); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var vals []value.Value
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.current.Type == TokenComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	if len(vals) != len(cols) {
		return nil, fmt.Errorf("%d columns but %d values given", len(cols), len(vals))
	}
	return &ast.InsertStmt{Table: table.Value, Columns: cols, Values: vals}, nil
}

// parseDelete parses DELETE FROM t [WHERE ...].
func (p *Parser) parseDelete() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume DELETE
		return nil, err
	}
	if _, err := p.expect(TokenFrom); err != nil {
		return nil, err
	}
	table, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	return &ast.DeleteStmt{Table: table.Value, Where: where}, nil
}

// parseSelect parses SELECT cols|* FROM t [WHERE ...].
func (p *Parser) parseSelect() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume SELECT
		return nil, err
	}
	var cols []string
	if p.current.Type == TokenStar {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		for {
			col, err := p.expect(TokenIdent)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col.Value)
			if p.current.Type == TokenComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if _, err := p.expect(TokenFrom); err != nil {
		return nil, err
	}
	table, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	return &ast.SelectStmt{Table: table.Value, Columns: cols, Where: where}, nil
}

// parseOptionalWhere parses "WHERE col = val AND col = val ..." if present,
// returning nil if there is no WHERE clause. Per spec.md §4.6 the engine
// only supports an equality conjunction, not arbitrary boolean expressions.
func (p *Parser) parseOptionalWhere() (map[string]value.Value, error) {
	if p.current.Type != TokenWhere {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	where := make(map[string]value.Value)
	for {
		col, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEquals); err != nil {
			return nil, err
		}
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		where[col.Value] = v
		if p.current.Type == TokenAnd {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return where, nil
}

// parseColumnList parses "(col, col, ...)".
func (p *Parser) parseColumnList() ([]string, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var cols []string
	for {
		col, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col.Value)
		if p.current.Type == TokenComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return cols, nil
}

// parseLiteral parses a NUMBER or STRING token into a value.Value.
func (p *Parser) parseLiteral() (value.Value, error) {
	tok := p.current
	switch tok.Type {
	case TokenNumber:
		n, err := strconv.ParseInt(tok.Value, 10, 32)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid integer %q at position %d", tok.Value, tok.Pos)
		}
		if err := p.advance(); err != nil {
			return value.Value{}, err
		}
		return value.NewInt(int32(n)), nil
	case TokenString:
		if err := p.advance(); err != nil {
			return value.Value{}, err
		}
		return value.NewText(tok.Value), nil
	default:
		return value.Value{}, fmt.Errorf("expected a literal value at position %d, got %s", tok.Pos, tok.Type)
	}
}
