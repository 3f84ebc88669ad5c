package docker

import (
	"fmt"
	"strings"
)

// Error represents a user-friendly Docker error with remediation steps.
// It wraps underlying Docker SDK errors with context and actionable guidance.
type Error struct {
	Op        string   // Operation that failed (e.g., "connect", "build", "push")
	Err       error    // Underlying error
	Message   string   // Human-readable message
	NextSteps []string // Suggested remediation steps
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FormatUserError formats the error for display to users with next steps.
func (e *Error) FormatUserError() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Message))

	if e.Err != nil {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", e.Err.Error()))
	}

	if len(e.NextSteps) > 0 {
		sb.WriteString("\nNext Steps:\n")
		for i, step := range e.NextSteps {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	return sb.String()
}

// Common error constructors

// ErrDockerNotRunning returns an error for when Docker daemon is not accessible.
func ErrDockerNotRunning(err error) *Error {
	return &Error{
		Op:      "connect",
		Err:     err,
		Message: "Cannot connect to Docker daemon",
		NextSteps: []string{
			"Ensure Docker is installed",
			"Start Docker Desktop (macOS/Windows) or run 'sudo systemctl start docker' (Linux)",
			"Check if Docker socket is accessible: ls -la /var/run/docker.sock",
			"Verify your user is in the docker group: groups $USER",
		},
	}
}

// ErrImageBuildFailed returns an error for when image build fails.
func ErrImageBuildFailed(err error) *Error {
	return &Error{
		Op:      "build",
		Err:     err,
		Message: "Failed to build Docker image",
		NextSteps: []string{
			"Check the Dockerfile syntax",
			"Verify all referenced files exist in the build context",
			"Review the build output for specific errors",
			"Try building manually: docker build -t test .",
		},
	}
}

// ErrDockerfileNotFound returns an error for when the Dockerfile is missing
// from the build context.
func ErrDockerfileNotFound(path string, err error) *Error {
	return &Error{
		Op:      "build",
		Err:     err,
		Message: fmt.Sprintf("Dockerfile not found at '%s'", path),
		NextSteps: []string{
			"Check the --dockerfile path; it is resolved relative to the build context root",
			"For remote builds, confirm the file exists on the branch being cloned",
		},
	}
}

// ErrImageTagFailed returns an error for when tagging an image fails.
func ErrImageTagFailed(source, target string, err error) *Error {
	return &Error{
		Op:      "tag",
		Err:     err,
		Message: fmt.Sprintf("Failed to tag image '%s' as '%s'", source, target),
		NextSteps: []string{
			"Verify the built image still exists: docker images",
			"Check the target reference is a valid repository name",
		},
	}
}

// ErrRegistryLoginFailed returns an error for when registry authentication fails.
func ErrRegistryLoginFailed(registry string, err error) *Error {
	display := registry
	loginCmd := "docker login"
	if registry == "" {
		display = "Docker Hub"
	} else {
		loginCmd += " " + registry
	}
	return &Error{
		Op:      "login",
		Err:     err,
		Message: fmt.Sprintf("Failed to log in to %s", display),
		NextSteps: []string{
			"Check the username and password are correct",
			"For registries with 2FA enabled, use an access token as the password",
			"Verify the registry address is reachable",
			"Try logging in manually: " + loginCmd,
		},
	}
}

// ErrImagePushFailed returns an error for when pushing an image fails.
func ErrImagePushFailed(ref string, err error) *Error {
	return &Error{
		Op:      "push",
		Err:     err,
		Message: fmt.Sprintf("Failed to push '%s'", ref),
		NextSteps: []string{
			"Verify you are logged in to the registry",
			"Check the image name matches your registry namespace",
			"Confirm you have push permission for this repository",
			"Try pushing manually: docker push " + ref,
		},
	}
}

// ErrImageNotFound returns an error for when an image cannot be found.
func ErrImageNotFound(image string, err error) *Error {
	return &Error{
		Op:      "inspect",
		Err:     err,
		Message: fmt.Sprintf("Image '%s' not found", image),
		NextSteps: []string{
			"Check the image name and tag are correct",
			"List local images: docker images",
		},
	}
}

// ErrImageInspectFailed returns an error for when image inspection fails.
func ErrImageInspectFailed(image string, err error) *Error {
	return &Error{
		Op:      "inspect",
		Err:     err,
		Message: fmt.Sprintf("Failed to inspect image '%s'", image),
		NextSteps: []string{
			"Check if the image exists: docker images",
			"Verify Docker daemon is running",
		},
	}
}
