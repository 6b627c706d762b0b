package testutil

// WithNamespaceTestData adds steps covering namespaced registration, firing
// and removal.
func (b *Builder) WithNamespaceTestData() *Builder {
	return b.
		On("click.ui", "a").
		On("click.ui.menu", "b").
		On("click", "c").
		Fire("click.ui").
		Expect("a click.ui", "b click.ui").
		Fire("click", Payload(1)).
		Expect("a click 1", "b click 1", "c click 1").
		Off(".menu", "").
		Fire("click").
		Expect("a click", "c click")
}

// WithFailingExpectation adds a step sequence whose expect step cannot
// pass.
func (b *Builder) WithFailingExpectation() *Builder {
	return b.
		On("click", "a").
		Fire("click").
		Expect("b click")
}
