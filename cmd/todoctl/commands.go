package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"todo-manager/internal/client"
	"todo-manager/internal/models"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Authenticate and store a session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Print("Password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return err
			}
			password = strings.TrimSpace(line)
		}
		if err := cli.Login(cmd.Context(), args[0], password); err != nil {
			return err
		}
		state := cli.State()
		fmt.Printf("Logged in as %s (%s)\n", state.User.Email, state.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify the stored session and print the identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.Init(cmd.Context()); err != nil {
			return err
		}
		state := cli.State()
		if state.User == nil {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("%s (%s)\n", state.User.Email, state.User.Role)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(cmd); err != nil {
			return err
		}
		warnOffline()
		state := cli.State()
		if len(state.Todos) == 0 {
			fmt.Println("No todos")
			return nil
		}
		for _, todo := range state.Todos {
			printTodo(todo)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(cmd); err != nil {
			return err
		}
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return models.ErrTitleRequired
		}

		input := client.CreateTodoInput{Title: title}
		input.Description, _ = cmd.Flags().GetString("desc")
		input.Priority, _ = cmd.Flags().GetString("priority")
		input.Category, _ = cmd.Flags().GetString("category")
		if raw, _ := cmd.Flags().GetString("tags"); raw != "" {
			input.Tags = splitTags(raw)
		}
		if raw, _ := cmd.Flags().GetString("due"); raw != "" {
			due, err := models.ParseDate(raw)
			if err != nil {
				return err
			}
			input.DueDate = &due
		}

		todo, err := cli.Create(cmd.Context(), input)
		if err != nil {
			return err
		}
		warnOffline()
		fmt.Printf("Created %s\n", todo.ID)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(cmd); err != nil {
			return err
		}

		var patch client.TodoPatch
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			patch.Title = &v
		}
		if cmd.Flags().Changed("desc") {
			v, _ := cmd.Flags().GetString("desc")
			patch.Description = &v
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetString("priority")
			patch.Priority = &v
		}
		if cmd.Flags().Changed("category") {
			v, _ := cmd.Flags().GetString("category")
			patch.Category = &v
		}
		if cmd.Flags().Changed("tags") {
			v, _ := cmd.Flags().GetString("tags")
			tags := splitTags(v)
			patch.Tags = &tags
		}
		if cmd.Flags().Changed("completed") {
			v, _ := cmd.Flags().GetBool("completed")
			patch.Completed = &v
		}
		if clear, _ := cmd.Flags().GetBool("clear-due"); clear {
			patch.DueDateSet = true
		} else if cmd.Flags().Changed("due") {
			raw, _ := cmd.Flags().GetString("due")
			due, err := models.ParseDate(raw)
			if err != nil {
				return err
			}
			patch.DueDateSet = true
			patch.DueDate = &due
		}

		todo, err := cli.Update(cmd.Context(), args[0], patch)
		if err != nil {
			return err
		}
		warnOffline()
		printTodo(*todo)
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a todo's completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(cmd); err != nil {
			return err
		}
		todo, err := cli.Toggle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		warnOffline()
		printTodo(*todo)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(cmd); err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Printf("Delete todo %s? [y/N] ", args[0])
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return err
			}
			answer := strings.ToLower(strings.TrimSpace(line))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted")
				return nil
			}
		}
		if err := cli.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		warnOffline()
		fmt.Println("Deleted")
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(cmd); err != nil {
			return err
		}
		warnOffline()
		stats := cli.State().Stats
		fmt.Printf("Total:         %d\n", stats.Total)
		fmt.Printf("Completed:     %d\n", stats.Completed)
		fmt.Printf("Pending:       %d\n", stats.Pending)
		fmt.Printf("High priority: %d\n", stats.HighPriority)
		fmt.Printf("Overdue:       %d\n", stats.Overdue)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")

	addCmd.Flags().String("desc", "", "description")
	addCmd.Flags().String("priority", "", "low, medium or high")
	addCmd.Flags().String("category", "", "category")
	addCmd.Flags().String("tags", "", "comma-separated tags")
	addCmd.Flags().String("due", "", "due date (YYYY-MM-DD or RFC 3339)")

	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("desc", "", "new description")
	editCmd.Flags().String("priority", "", "low, medium or high")
	editCmd.Flags().String("category", "", "new category")
	editCmd.Flags().String("tags", "", "comma-separated tags")
	editCmd.Flags().Bool("completed", false, "set completion state")
	editCmd.Flags().String("due", "", "new due date")
	editCmd.Flags().Bool("clear-due", false, "remove the due date")

	rmCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

func requireSession(cmd *cobra.Command) error {
	if err := cli.Init(cmd.Context()); err != nil {
		return err
	}
	if cli.State().User == nil {
		return fmt.Errorf("not logged in; run 'todoctl login <email>' first")
	}
	return nil
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func printTodo(todo client.Todo) {
	mark := " "
	if todo.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] %s  %s (%s)", mark, todo.ID, todo.Title, todo.Priority)
	if todo.DueDate != nil {
		due := todo.DueDate.Format("2006-01-02")
		if !todo.Completed && time.Now().After(*todo.DueDate) {
			line += fmt.Sprintf("  due %s OVERDUE", due)
		} else {
			line += fmt.Sprintf("  due %s", due)
		}
	}
	if len(todo.Tags) > 0 {
		line += "  #" + strings.Join(todo.Tags, " #")
	}
	fmt.Println(line)
	if todo.Description != "" {
		fmt.Printf("      %s\n", todo.Description)
	}
}
