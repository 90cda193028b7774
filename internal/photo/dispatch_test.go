package photo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	files   map[string][]byte
	saveErr error
	events  *[]string
}

func (m *mockStorage) Save(filename string, data []byte) (string, error) {
	*m.events = append(*m.events, "save")
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.files[filename] = data
	return filename, nil
}

func (m *mockStorage) Get(filename string) ([]byte, error) {
	data, ok := m.files[filename]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// mockLauncher is a mock implementation of Launcher
type mockLauncher struct {
	launched  [][]string
	launchErr error
	events    *[]string
}

func (m *mockLauncher) Launch(name string, args ...string) error {
	*m.events = append(*m.events, "launch")
	if m.launchErr != nil {
		return m.launchErr
	}
	m.launched = append(m.launched, append([]string{name}, args...))
	return nil
}

var _ = Describe("Dispatcher", func() {
	var (
		events     []string
		storage    *mockStorage
		launcher   *mockLauncher
		script     string
		dispatcher *Dispatcher
		doc        []byte
		report     DispatchReport
	)

	BeforeEach(func() {
		events = nil
		storage = &mockStorage{files: map[string][]byte{}, events: &events}
		launcher = &mockLauncher{events: &events}
		script = filepath.Join(GinkgoT().TempDir(), "process_photos.sh")
		Expect(os.WriteFile(script, []byte("exit 0\n"), 0644)).To(Succeed())
		doc = []byte(`[{"qrcodes": ["A123"]}]`)
	})

	JustBeforeEach(func() {
		dispatcher = NewDispatcherWithDeps(storage, "photo_metadata.json", "bash", script, launcher)
		report = dispatcher.Dispatch(context.Background(), doc)
	})

	When("both stages succeed", func() {
		It("should write and then launch", func() {
			Expect(events).To(Equal([]string{"save", "launch"}))
			Expect(report).To(Equal(DispatchReport{Persisted: true, Launched: true}))
		})

		It("should write the document byte for byte", func() {
			Expect(storage.files).To(HaveKeyWithValue("photo_metadata.json", doc))
		})

		It("should launch the script through the shell with no other arguments", func() {
			Expect(launcher.launched).To(Equal([][]string{{"bash", script}}))
		})

		It("should read the document back", func() {
			data, err := dispatcher.Document()
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(doc))
		})
	})

	When("the write fails", func() {
		BeforeEach(func() {
			storage.saveErr = errors.New("permission denied")
		})

		It("should still launch the script", func() {
			Expect(report).To(Equal(DispatchReport{Persisted: false, Launched: true}))
			Expect(launcher.launched).To(HaveLen(1))
		})
	})

	When("the script is missing", func() {
		BeforeEach(func() {
			Expect(os.Remove(script)).To(Succeed())
		})

		It("should keep the written document and not launch", func() {
			Expect(report).To(Equal(DispatchReport{Persisted: true, Launched: false}))
			Expect(launcher.launched).To(BeEmpty())
		})
	})

	When("the launch fails", func() {
		BeforeEach(func() {
			launcher.launchErr = errors.New("bash: not found")
		})

		It("should report it without retrying the write", func() {
			Expect(report).To(Equal(DispatchReport{Persisted: true, Launched: false}))
			Expect(events).To(Equal([]string{"save", "launch"}))
		})
	})
})

var _ = Describe("NewDispatcher", func() {
	var (
		dir    string
		output string
		marker string
		script string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		output = filepath.Join(dir, "nested", "out", "photo_metadata.json")
		marker = filepath.Join(dir, "ran")
		script = filepath.Join(dir, "process_photos.sh")
		Expect(os.WriteFile(script, []byte("echo done > '"+marker+"'\n"), 0644)).To(Succeed())
	})

	It("should create missing directories and run the script in the background", func() {
		dispatcher, err := NewDispatcher(DispatchConfig{OutputPath: output, ScriptPath: script, Shell: "sh"})
		Expect(err).NotTo(HaveOccurred())

		report := dispatcher.Dispatch(context.Background(), []byte("[]"))
		Expect(report).To(Equal(DispatchReport{Persisted: true, Launched: true}))

		data, err := os.ReadFile(output)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("[]"))

		Eventually(func() error {
			_, err := os.Stat(marker)
			return err
		}, 5*time.Second, 20*time.Millisecond).Should(Succeed())
	})

	It("should report an unavailable interpreter", func() {
		dispatcher, err := NewDispatcher(DispatchConfig{OutputPath: output, ScriptPath: script, Shell: "no-such-shell-for-tests"})
		Expect(err).NotTo(HaveOccurred())

		report := dispatcher.Dispatch(context.Background(), []byte("[]"))
		Expect(report).To(Equal(DispatchReport{Persisted: true, Launched: false}))
	})
})

var _ = Describe("ExpandUser", func() {
	var home string

	BeforeEach(func() {
		var err error
		home, err = os.UserHomeDir()
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("expanding paths",
		func(in string, want func() string) {
			got, err := ExpandUser(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want()))
		},
		Entry("default output path", DefaultOutputPath, func() string { return filepath.Join(home, "Documents", "photo_metadata.json") }),
		Entry("bare tilde", "~", func() string { return home }),
		Entry("absolute path", "/tmp/out.json", func() string { return "/tmp/out.json" }),
		Entry("relative path", "out.json", func() string { return "out.json" }),
		Entry("another user's home", "~someone/out.json", func() string { return "~someone/out.json" }),
	)
})
