// pattern: Functional Core

package ignore

// Context is the chain of ignore rules inherited by a directory. A Context is
// never modified after construction; descending builds a new link.
type Context struct {
	dir    string
	rules  []Rule
	parent *Context
}

// NewContext starts a chain at dir.
func NewContext(dir string, rules []Rule) *Context {
	return &Context{dir: dir, rules: rules}
}

// Child returns a new context for dir whose parent is c.
func (c *Context) Child(dir string, rules []Rule) *Context {
	return &Context{dir: dir, rules: rules, parent: c}
}

// Dir returns the directory this link belongs to.
func (c *Context) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Parent returns the enclosing context, or nil at the top of the chain.
func (c *Context) Parent() *Context {
	if c == nil {
		return nil
	}
	return c.parent
}

// Rules returns every rule in the chain, outermost directory first.
func (c *Context) Rules() []Rule {
	if c == nil {
		return nil
	}
	var chain []*Context
	for link := c; link != nil; link = link.parent {
		chain = append(chain, link)
	}
	var rules []Rule
	for i := len(chain) - 1; i >= 0; i-- {
		rules = append(rules, chain[i].rules...)
	}
	return rules
}
