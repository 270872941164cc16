package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/util/json"
)

func TestCLI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CLI")
}

const pipelineFile = `
name: ages
input:
  domain:
    type: vector
    atom:
      type: numeric
  metric: symmetric
  distance: 1
stages:
- op: clamp
  args: {lower: 0, upper: 100}
- op: bounded_sum
measurement:
  op: laplace
  args: {scale: 100}
session:
  budget: {measure: pure_dp, epsilon: 1}
  queries:
  - name: total
    loss: {measure: pure_dp, epsilon: 1}
  - name: again
    loss: {measure: pure_dp, epsilon: 1}
data:
  path: $.people[*].age
`

const dataFile = `{"people": [{"name": "a", "age": 31}, {"name": "b", "age": 47}, {"name": "c", "age": 120}]}`

var _ = Describe("dpctl", func() {
	var dir string
	var out, logs *bytes.Buffer

	execute := func(args ...string) error {
		root := newRootCommand(BuildInfo{Version: "v0.1.0", CommitHash: "abc", BuildDate: "today"}, logs)
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(args)
		return root.Execute()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "pipeline.yaml"), []byte(pipelineFile), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "data.json"), []byte(dataFile), 0o600)).To(Succeed())
		out, logs = &bytes.Buffer{}, &bytes.Buffer{}
	})

	It("should print the version", func() {
		Expect(execute("version")).To(Succeed())
		Expect(out.String()).To(Equal("dpctl v0.1.0 (abc) built on today\n"))
	})

	It("should list the constructors", func() {
		Expect(execute("list")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("bounded_sum"))
		Expect(out.String()).To(MatchRegexp(`laplace\s*\|\s*measurement`))
	})

	It("should run a session", func() {
		Expect(execute("run", "-f", filepath.Join(dir, "pipeline.yaml"), "-d", filepath.Join(dir, "data.json"),
			"--seed", "7", "-o", "json")).To(Succeed())

		var results []map[string]any
		Expect(json.Unmarshal(out.Bytes(), &results)).To(Succeed())
		Expect(results).To(HaveLen(2))
		Expect(results[0]).To(HaveKeyWithValue("name", "total"))
		Expect(results[0]).To(HaveKey("release"))
		Expect(results[0]).To(HaveKeyWithValue("remaining", "PureDP(ε=0)"))
		Expect(results[0]).NotTo(HaveKey("error"))
		Expect(results[1]).To(HaveKeyWithValue("error", ContainSubstring("insufficient privacy budget")))
		Expect(results[1]).NotTo(HaveKey("release"))

		Expect(logs.String()).To(ContainSubstring("seeded noise sampler"))
	})

	It("should be reproducible with a seed", func() {
		args := []string{"run", "-f", filepath.Join(dir, "pipeline.yaml"), "-d", filepath.Join(dir, "data.json"),
			"--seed", "7", "-o", "json"}
		Expect(execute(args...)).To(Succeed())
		first := out.String()
		out.Reset()
		Expect(execute(args...)).To(Succeed())
		Expect(out.String()).To(Equal(first))
	})

	It("should take settings from the environment", func() {
		DeferCleanup(os.Unsetenv, "DPCTL_OUTPUT")
		DeferCleanup(os.Unsetenv, "DPCTL_LOG_FORMAT")
		Expect(os.Setenv("DPCTL_OUTPUT", "table")).To(Succeed())
		Expect(os.Setenv("DPCTL_LOG_FORMAT", "tint")).To(Succeed())

		Expect(execute("run", "-f", filepath.Join(dir, "pipeline.yaml"), "-d", filepath.Join(dir, "data.json"),
			"--seed", "7")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("REMAINING"))
		Expect(out.String()).To(ContainSubstring("total"))
		Expect(logs.String()).To(ContainSubstring("session opened"))
	})

	It("should refuse bad invocations", func() {
		Expect(execute("run", "-d", filepath.Join(dir, "data.json"))).To(MatchError(ContainSubstring("no pipeline file")))
		Expect(execute("run", "-f", filepath.Join(dir, "missing.yaml"), "-d", "x")).
			To(MatchError(ContainSubstring("failed to read pipeline file")))
		Expect(execute("run", "-f", filepath.Join(dir, "pipeline.yaml"))).To(MatchError(ContainSubstring("no data file")))
		Expect(execute("version", "--log-format", "syslog")).To(MatchError(ContainSubstring("unknown log format")))
		Expect(execute("graph", "-f", filepath.Join(dir, "pipeline.yaml"), "--format", "svg")).
			To(MatchError(ContainSubstring("unknown diagram format")))
	})

	It("should draw the pipeline", func() {
		Expect(execute("graph", "-f", filepath.Join(dir, "pipeline.yaml"))).To(Succeed())
		Expect(out.String()).To(HavePrefix("digraph"))
		Expect(out.String()).To(ContainSubstring("clamp(lower=0, upper=100)"))

		out.Reset()
		Expect(execute("graph", "-f", filepath.Join(dir, "pipeline.yaml"), "--format", "mermaid", "--operations")).To(Succeed())
		Expect(out.String()).To(HavePrefix("```mermaid"))
		Expect(out.String()).To(ContainSubstring("laplace"))
	})
})
