/*
Package test provides a testify suite base for integration-style tests.
The module's own tests (registry, twin store, broker) use plain testing
functions and do not import it.

Usage:

	import "github.com/nyxwave/fleetmesh/pkg/test"

	type MyTestSuite struct {
		test.Suite
	}

	func (s *MyTestSuite) TestSomething() {
		s.NoError(doSomething(s.Ctx))
	}

	func TestMySuite(t *testing.T) {
		test.Run(t, new(MyTestSuite))
	}
*/
package test
