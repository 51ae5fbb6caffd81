//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

const (
	BINARY_NAME = "../bin/chat-client"
	MAIN_PATH   = "../cmd/client/main.go"
)

func Build() error {
	fmt.Println("🔨 Building client binary...")
	return runCmd("go", "build", "-o", BINARY_NAME, MAIN_PATH)
}

func Test() error {
	fmt.Println("🧪 Running tests...")
	return runCmd("go", "test", "../...")
}

func Run() error {
	mg.Deps(Build)
	fmt.Println("▶️  Starting chat client...")
	return runCmd(BINARY_NAME)
}

func Clean() {
	fmt.Println("🧹 Cleaning up...")
	os.Remove(BINARY_NAME)
}

func runCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
